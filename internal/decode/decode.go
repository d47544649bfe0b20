// Package decode reads a source file as text, trying a fixed ordered
// list of character encodings and falling back to a lossy UTF-8
// decode when none strictly succeed.
package decode

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/standardbeagle/codectx/internal/logging"
	"github.com/standardbeagle/codectx/internal/xerrors"
)

const (
	detectionWindow    = 8 * 1024
	streamingThreshold = 10 * 1024 * 1024
	chunkSize          = 64 * 1024
)

// orderedEncodings is the fixed strict-decode attempt order: UTF-8 is
// checked structurally (not via x/text, which has no strict UTF-8
// decoder), then GBK, then the GB2312 slot, then Latin-1. x/text has
// no plain GB2312 decoder: that slot uses HZGB2312 (the 7-bit HZ form),
// and plain GB2312 byte sequences are already accepted by the GBK
// decoder, which is a superset of GB2312.
var orderedEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gbk", simplifiedchinese.GBK},
	{"gb2312", simplifiedchinese.HZGB2312},
	{"latin1", charmap.ISO8859_1},
}

// File reads path and decodes it to text per the ordered-encoding
// strategy. It returns a FileReadError only when the file cannot be
// opened or read; encoding failure is never fatal; a lossy fallback is
// always produced.
func File(path string, log *logging.Logger) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", xerrors.NewFileReadError(path, "open", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", xerrors.NewFileReadError(path, "stat", err)
	}

	window := make([]byte, detectionWindow)
	n, readErr := io.ReadFull(f, window)
	window = window[:n]
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return "", xerrors.NewFileReadError(path, "read", readErr)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", xerrors.NewFileReadError(path, "seek", err)
	}

	if info.Size() > streamingThreshold {
		return decodeLarge(f, path, window, log)
	}

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", xerrors.NewFileReadError(path, "read", err)
	}

	if utf8.Valid(window) {
		if text, ok := decodeFull(bytes.NewReader(raw), nil); ok {
			return text, nil
		}
	}

	for _, candidate := range orderedEncodings {
		if !strictlyDecodable(window, candidate.enc) {
			continue
		}
		if text, ok := decodeFull(bytes.NewReader(raw), candidate.enc); ok {
			return text, nil
		}
	}

	if log != nil {
		log.Warnf("%s", xerrors.NewEncodingFallbackWarning(path).Error())
	}
	return decodeLossyUTF8(raw), nil
}

// decodeLarge handles files over streamingThreshold: every decode
// attempt streams directly from f in chunkSize increments so the full
// content is never buffered into memory at once, trading the small
// files' one-shot io.ReadAll for re-seekable chunked reads.
func decodeLarge(f *os.File, path string, window []byte, log *logging.Logger) (string, error) {
	if utf8.Valid(window) {
		if text, ok := decodeFull(f, nil); ok {
			return text, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", xerrors.NewFileReadError(path, "seek", err)
		}
	}

	for _, candidate := range orderedEncodings {
		if !strictlyDecodable(window, candidate.enc) {
			continue
		}
		if text, ok := decodeFull(f, candidate.enc); ok {
			return text, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", xerrors.NewFileReadError(path, "seek", err)
		}
	}

	if log != nil {
		log.Warnf("%s", xerrors.NewEncodingFallbackWarning(path).Error())
	}
	return streamLossyUTF8(f), nil
}

// strictlyDecodable reports whether window decodes under enc without
// hitting the replacement character, used only to pick a candidate
// before committing to decoding the whole (possibly large) file.
func strictlyDecodable(window []byte, enc encoding.Encoding) bool {
	decoded, err := enc.NewDecoder().Bytes(window)
	if err != nil {
		return false
	}
	return !bytes.ContainsRune(decoded, utf8.RuneError)
}

// decodeFull decodes everything r produces under enc (nil meaning
// "interpret as UTF-8 directly"), streaming through chunkSize
// increments so neither the input nor the transcoded output is ever
// required to sit fully in an intermediate buffer before the other.
func decodeFull(r io.Reader, enc encoding.Encoding) (string, bool) {
	if enc == nil {
		return streamUTF8(r)
	}

	tr := transform.NewReader(r, enc.NewDecoder())
	var out bytes.Buffer
	buf := make([]byte, chunkSize)
	for {
		n, err := tr.Read(buf)
		if n > 0 {
			if bytes.ContainsRune(buf[:n], utf8.RuneError) {
				return "", false
			}
			out.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false
		}
	}
	return out.String(), true
}

// streamUTF8 reads r through a chunkSize-buffered bufio.Reader one
// rune at a time, so a rune split across a chunk boundary is still
// decoded correctly without ever holding the whole input at once. It
// returns ok=false the moment an invalid byte sequence is seen.
func streamUTF8(r io.Reader) (string, bool) {
	br := bufio.NewReaderSize(r, chunkSize)
	var out bytes.Buffer
	for {
		ru, size, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false
		}
		if ru == utf8.RuneError && size == 1 {
			return "", false
		}
		out.WriteRune(ru)
	}
	return out.String(), true
}

// streamLossyUTF8 is decodeLossyUTF8's streaming counterpart: it reads
// r through a chunkSize-buffered bufio.Reader, replacing any malformed
// byte with the Unicode replacement character, without requiring r's
// full contents to be buffered up front.
func streamLossyUTF8(r io.Reader) string {
	br := bufio.NewReaderSize(r, chunkSize)
	var out bytes.Buffer
	for {
		ru, _, err := br.ReadRune()
		if err != nil {
			break
		}
		out.WriteRune(ru)
	}
	return out.String()
}

// decodeLossyUTF8 is the final fallback: interpret raw as UTF-8,
// replacing any malformed sequence with the Unicode replacement
// character.
func decodeLossyUTF8(raw []byte) string {
	var out bytes.Buffer
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		out.WriteRune(r)
		raw = raw[size:]
	}
	return out.String()
}
