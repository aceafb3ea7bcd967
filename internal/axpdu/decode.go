package axpdu

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// PDU is a fully decoded AgentX packet: a header plus its type-specific
// body (one of the Body types in this package).
type PDU struct {
	Header Header
	Body   interface{}
}

// ReadPDU reads one PDU from r: the 20-byte header, then PayloadLength
// bytes of body. A short read on the header is an io error (connection
// gone); a short read on the body, or a body that fails DecodeBody, is a
// parse error distinguishable via IsParseError so the session layer can
// answer with response(error=parseError) instead of closing the
// connection.
func ReadPDU(r *bufio.Reader) (PDU, error) {
	headBuf := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r, headBuf); err != nil {
		return PDU{}, errors.Wrap(err, "axpdu: read header")
	}
	h, err := UnmarshalHeader(headBuf)
	if err != nil {
		return PDU{}, err
	}
	payload := make([]byte, h.PayloadLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return PDU{}, &ParseError{Cause: errors.Wrap(err, "axpdu: read payload")}
	}
	body, err := DecodeBody(h, payload)
	if err != nil {
		return PDU{}, &ParseError{Cause: err}
	}
	return PDU{Header: h, Body: body}, nil
}

// ParseError wraps a body-decode failure (valid header, malformed body).
// The session FSM must answer these with a response(error=parseError,
// error_index=0) and keep the session open, distinct from a
// header-decode failure, which is connection fatal.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return "axpdu: parse error: " + e.Cause.Error() }
func (e *ParseError) Unwrap() error { return e.Cause }

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
