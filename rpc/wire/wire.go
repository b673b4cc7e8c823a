// Package wire implements the request/response framing and encoding
// for the RPC surface described in spec.md §6.2: a fixed verb set
// (VERSION, SET, GET), each a tagged request with typed parameters
// and a typed response, carried over whatever transport rpc/transport
// provides.
//
// Framing mirrors the teacher's own low-level style (encoding/binary
// over a byte stream, no reflection, no schema negotiation beyond the
// protocol version) rather than reaching for a schema'd codec —
// spec.md §6.2 describes a small, fixed, hand-framed protocol, the
// same shape as the original's urpc-based wire format
// (original_source/hyscancache/hyscan-cache-rpc.h).
package wire

import (
	"encoding/binary"
	"io"

	"github.com/tidekeep/blobcache/internal/cacheerr"
)

// ProtocolVersion is the wire version the client verifies at connect
// time, carried over verbatim from the source (spec.md §6.2).
const ProtocolVersion uint32 = 20151200

// DefaultMaxDataSize is the default transport-imposed payload cap,
// minus a small header reserve, per spec.md §6.2.
const DefaultMaxDataSize = 4<<20 - 1024

// Verb identifies an RPC procedure.
type Verb byte

const (
	VerbVersion Verb = 1
	VerbSet     Verb = 2
	VerbGet     Verb = 3
)

func (v Verb) String() string {
	switch v {
	case VerbVersion:
		return "VERSION"
	case VerbSet:
		return "SET"
	case VerbGet:
		return "GET"
	default:
		return "UNKNOWN"
	}
}

// Status codes for Response.Status (spec.md §6.2: "1 (OK) or 0 (FAIL)").
const (
	StatusFail uint32 = 0
	StatusOK   uint32 = 1
)

// Request is one call's parameters. Not every field is meaningful for
// every verb: VERSION ignores all of them; GET ignores Data.
type Request struct {
	Verb   Verb
	Key    uint64
	Detail uint64
	Data   []byte // SET's pre-concatenated payload; may be empty (delete)
}

// Response is one call's result.
type Response struct {
	Verb    Verb
	Status  uint32
	Version uint32 // meaningful only for VerbVersion
	Data    []byte // meaningful only for VerbGet
}

// WriteRequest frames and writes req to w.
func WriteRequest(w io.Writer, req *Request, maxDataSize int) error {
	if len(req.Data) > maxDataSize {
		return cacheerr.Wrap(cacheerr.ErrTransport, "request payload exceeds MAX_DATA_SIZE")
	}
	var hdr [1 + 8 + 8 + 4]byte
	hdr[0] = byte(req.Verb)
	binary.BigEndian.PutUint64(hdr[1:9], req.Key)
	binary.BigEndian.PutUint64(hdr[9:17], req.Detail)
	binary.BigEndian.PutUint32(hdr[17:21], uint32(len(req.Data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return cacheerr.Wrap(err, "write request header")
	}
	if len(req.Data) > 0 {
		if _, err := w.Write(req.Data); err != nil {
			return cacheerr.Wrap(err, "write request body")
		}
	}
	return nil
}

// ReadRequest reads and decodes one framed request from r.
func ReadRequest(r io.Reader, maxDataSize int) (*Request, error) {
	var hdr [1 + 8 + 8 + 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, cacheerr.Wrap(err, "read request header")
	}
	dataLen := binary.BigEndian.Uint32(hdr[17:21])
	if int(dataLen) > maxDataSize {
		return nil, cacheerr.Wrap(cacheerr.ErrMalformed, "request payload exceeds MAX_DATA_SIZE")
	}
	req := &Request{
		Verb:   Verb(hdr[0]),
		Key:    binary.BigEndian.Uint64(hdr[1:9]),
		Detail: binary.BigEndian.Uint64(hdr[9:17]),
	}
	if dataLen > 0 {
		req.Data = make([]byte, dataLen)
		if _, err := io.ReadFull(r, req.Data); err != nil {
			return nil, cacheerr.Wrap(err, "read request body")
		}
	}
	return req, nil
}

// WriteResponse frames and writes resp to w.
func WriteResponse(w io.Writer, resp *Response, maxDataSize int) error {
	if len(resp.Data) > maxDataSize {
		return cacheerr.Wrap(cacheerr.ErrTransport, "response payload exceeds MAX_DATA_SIZE")
	}
	var hdr [1 + 4 + 4 + 4]byte
	hdr[0] = byte(resp.Verb)
	binary.BigEndian.PutUint32(hdr[1:5], resp.Status)
	binary.BigEndian.PutUint32(hdr[5:9], resp.Version)
	binary.BigEndian.PutUint32(hdr[9:13], uint32(len(resp.Data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return cacheerr.Wrap(err, "write response header")
	}
	if len(resp.Data) > 0 {
		if _, err := w.Write(resp.Data); err != nil {
			return cacheerr.Wrap(err, "write response body")
		}
	}
	return nil
}

// ReadResponse reads and decodes one framed response from r.
func ReadResponse(r io.Reader, maxDataSize int) (*Response, error) {
	var hdr [1 + 4 + 4 + 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, cacheerr.Wrap(err, "read response header")
	}
	dataLen := binary.BigEndian.Uint32(hdr[9:13])
	if int(dataLen) > maxDataSize {
		return nil, cacheerr.Wrap(cacheerr.ErrMalformed, "response payload exceeds MAX_DATA_SIZE")
	}
	resp := &Response{
		Verb:    Verb(hdr[0]),
		Status:  binary.BigEndian.Uint32(hdr[1:5]),
		Version: binary.BigEndian.Uint32(hdr[5:9]),
	}
	if dataLen > 0 {
		resp.Data = make([]byte, dataLen)
		if _, err := io.ReadFull(r, resp.Data); err != nil {
			return nil, cacheerr.Wrap(err, "read response body")
		}
	}
	return resp, nil
}
