package wire

import (
	"bytes"
	"testing"
)

func TestRequestRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	req := &Request{Verb: VerbSet, Key: 0xAAAA, Detail: 0xBBBB, Data: []byte("hello")}
	if err := WriteRequest(&buf, req, DefaultMaxDataSize); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	got, err := ReadRequest(&buf, DefaultMaxDataSize)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if got.Verb != req.Verb || got.Key != req.Key || got.Detail != req.Detail || string(got.Data) != string(req.Data) {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, req)
	}
}

func TestRequestRoundtripEmptyData(t *testing.T) {
	var buf bytes.Buffer
	req := &Request{Verb: VerbGet, Key: 1, Detail: 2}
	if err := WriteRequest(&buf, req, DefaultMaxDataSize); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	got, err := ReadRequest(&buf, DefaultMaxDataSize)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if len(got.Data) != 0 {
		t.Fatalf("expected empty data, got %q", got.Data)
	}
}

func TestResponseRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	resp := &Response{Verb: VerbGet, Status: StatusOK, Data: []byte("payload")}
	if err := WriteResponse(&buf, resp, DefaultMaxDataSize); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	got, err := ReadResponse(&buf, DefaultMaxDataSize)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.Verb != resp.Verb || got.Status != resp.Status || string(got.Data) != string(resp.Data) {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, resp)
	}
}

func TestVersionResponseRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	resp := &Response{Verb: VerbVersion, Status: StatusOK, Version: ProtocolVersion}
	if err := WriteResponse(&buf, resp, DefaultMaxDataSize); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	got, err := ReadResponse(&buf, DefaultMaxDataSize)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.Version != ProtocolVersion {
		t.Fatalf("got version %d, want %d", got.Version, ProtocolVersion)
	}
}

func TestWriteRequestRejectsOversizeData(t *testing.T) {
	var buf bytes.Buffer
	req := &Request{Verb: VerbSet, Data: make([]byte, 16)}
	if err := WriteRequest(&buf, req, 8); err == nil {
		t.Fatalf("expected an error when data exceeds maxDataSize")
	}
}

func TestReadRequestRejectsOversizeClaimedLength(t *testing.T) {
	var buf bytes.Buffer
	// Write a request whose header claims a body larger than the
	// reader's maxDataSize. The body is written in full, but
	// ReadRequest must reject it from the header alone.
	if err := WriteRequest(&buf, &Request{Verb: VerbSet, Data: make([]byte, 100)}, DefaultMaxDataSize); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if _, err := ReadRequest(&buf, 10); err == nil {
		t.Fatalf("expected ReadRequest to reject a claimed length over its own limit")
	}
}

func TestVerbString(t *testing.T) {
	cases := map[Verb]string{VerbVersion: "VERSION", VerbSet: "SET", VerbGet: "GET", Verb(99): "UNKNOWN"}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Fatalf("Verb(%d).String() = %q, want %q", v, got, want)
		}
	}
}
