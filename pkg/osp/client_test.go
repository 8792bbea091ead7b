// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dana Reiter, Lucerna

package osp

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockTransport records every frame and answers SendReceive through a
// pluggable handler.
type mockTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	handle  func(frame []byte, respLen int) ([]byte, error)
	dirs    []Direction
}

func (m *mockTransport) Send(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, append([]byte(nil), frame...))
	return m.sendErr
}

func (m *mockTransport) SendReceive(frame []byte, respLen int) ([]byte, error) {
	m.mu.Lock()
	m.sent = append(m.sent, append([]byte(nil), frame...))
	m.mu.Unlock()
	if m.handle == nil {
		return nil, ErrNoResponse
	}
	return m.handle(frame, respLen)
}

func (m *mockTransport) SetDirection(d Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = append(m.dirs, d)
	return nil
}

func (m *mockTransport) frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.sent...)
}

func respondWith(teles ...Telegram) func([]byte, int) ([]byte, error) {
	i := 0
	return func(frame []byte, respLen int) ([]byte, error) {
		if i >= len(teles) {
			return nil, ErrNoResponse
		}
		resp := teles[i]
		i++
		return resp.Bytes(), nil
	}
}

func TestClientCastSendsFrame(t *testing.T) {
	tr := &mockTransport{}
	c := NewClient(tr)
	if err := c.Reset(AddrBroadcast); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	frames := tr.frames()
	if len(frames) != 1 || !bytes.Equal(frames[0], []byte{0xA0, 0x00, 0x00, 0x22}) {
		t.Errorf("sent = %v, want one reset frame", frames)
	}
}

func TestClientConstructErrorSkipsTransport(t *testing.T) {
	tr := &mockTransport{}
	c := NewClient(tr)
	err := c.SetPWM(AddrUninit, 0, 0, 0, 0)
	if !errors.Is(err, ErrAddress) {
		t.Fatalf("error = %v, want ErrAddress", err)
	}
	var pe *PhaseError
	if !errors.As(err, &pe) || pe.Phase != PhaseConstruct {
		t.Errorf("error = %v, want construct phase", err)
	}
	if len(tr.frames()) != 0 {
		t.Error("transport touched despite construct failure")
	}
}

func TestClientTransferErrorTagged(t *testing.T) {
	tr := &mockTransport{} // nil handler: every SendReceive reports no response
	c := NewClient(tr)
	_, err := c.Identify(0x001)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("error = %v, want ErrNoResponse", err)
	}
	var pe *PhaseError
	if !errors.As(err, &pe) || pe.Phase != PhaseTransfer {
		t.Errorf("error = %v, want transfer phase", err)
	}
}

func TestClientDestructErrorTagged(t *testing.T) {
	corrupt := makeResp(0x001, TIDIdentify, []byte{0, 0, 0, 1})
	corrupt.Data[corrupt.Size-1] ^= 0xFF
	tr := &mockTransport{handle: respondWith(corrupt)}
	c := NewClient(tr)
	_, err := c.Identify(0x001)
	if !errors.Is(err, ErrCRC) {
		t.Fatalf("error = %v, want ErrCRC", err)
	}
	var pe *PhaseError
	if !errors.As(err, &pe) || pe.Phase != PhaseDestruct {
		t.Errorf("error = %v, want destruct phase", err)
	}
}

func TestClientIdentifyRoundTrip(t *testing.T) {
	tr := &mockTransport{handle: respondWith(makeResp(0x002, TIDIdentify, []byte{0x00, 0x00, 0x00, 0x40}))}
	c := NewClient(tr)
	id, err := c.Identify(0x002)
	if err != nil {
		t.Fatalf("Identify() error: %v", err)
	}
	if !id.IsSAID() {
		t.Errorf("id = %s, want said", id)
	}
	frames := tr.frames()
	if len(frames) != 1 || frames[0][2]&0x7F != TIDIdentify {
		t.Errorf("sent = %v, want one identify frame", frames)
	}
}

func TestClientTraceLevels(t *testing.T) {
	resp := makeResp(0x002, TIDIdentify, []byte{0x00, 0x00, 0x00, 0x40})

	tests := []struct {
		name      string
		level     LogLevel
		wantLines int
		wantBytes bool
	}{
		{"none", LogNone, 0, false},
		{"args", LogArgs, 1, false},
		{"bytes", LogBytes, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			tr := &mockTransport{handle: respondWith(resp)}
			c := NewClient(tr, WithLogger(zap.New(core)), WithLogLevel(tt.level))

			id, err := c.Identify(0x002)
			if err != nil || !id.IsSAID() {
				t.Fatalf("Identify() = %v, %v; tracing must not change the result", id, err)
			}
			if logs.Len() != tt.wantLines {
				t.Fatalf("trace lines = %d, want %d", logs.Len(), tt.wantLines)
			}
			if tt.wantLines == 0 {
				return
			}
			entry := logs.All()[0]
			if entry.Message != "identify" {
				t.Errorf("trace message = %q, want identify", entry.Message)
			}
			fields := entry.ContextMap()
			if _, ok := fields["tx"]; ok != tt.wantBytes {
				t.Errorf("tx field present = %v, want %v", ok, tt.wantBytes)
			}
			if _, ok := fields["id"]; !ok {
				t.Error("trace line missing decoded id")
			}
		})
	}
}

func TestClientTraceOnError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := &mockTransport{}
	c := NewClient(tr, WithLogger(zap.New(core)), WithLogLevel(LogArgs))

	_, err := c.Identify(0x001)
	if err == nil {
		t.Fatal("expected transfer error")
	}
	if logs.Len() != 1 || logs.All()[0].Level != zap.WarnLevel {
		t.Fatalf("want one warn-level trace line, got %v", logs.All())
	}
}

func TestClientSetTestPWSentinelWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := &mockTransport{}
	c := NewClient(tr, WithLogger(zap.New(core)))

	if err := c.SetTestPW(0x001, TestPWUnknown); err != nil {
		t.Fatalf("SetTestPW() error: %v", err)
	}
	if logs.FilterMessageSnippet("settestpw").Len() == 0 {
		t.Error("expected a warning for the sentinel password")
	}
	if len(tr.frames()) != 1 {
		t.Error("sentinel password must still be sent")
	}
}

func TestClientJournalRecordsAtAnyLevel(t *testing.T) {
	j := NewJournal()
	tr := &mockTransport{handle: respondWith(makeResp(0x002, TIDIdentify, []byte{0, 0, 0, 0x40}))}
	c := NewClient(tr, WithJournal(j)) // log level stays LogNone

	if _, err := c.Identify(0x002); err != nil {
		t.Fatalf("Identify() error: %v", err)
	}
	if err := c.Reset(AddrBroadcast); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	entries := j.Entries()
	if len(entries) != 2 {
		t.Fatalf("journal entries = %d, want 2", len(entries))
	}
	if entries[0].Op != "identify" || entries[0].RX == nil {
		t.Errorf("first entry = %+v, want identify with response bytes", entries[0])
	}
	if entries[1].Op != "reset" || entries[1].RX != nil {
		t.Errorf("second entry = %+v, want reset without response", entries[1])
	}
}

func TestClientLogLevelRestore(t *testing.T) {
	c := NewClient(&mockTransport{}, WithLogLevel(LogBytes))
	prev := c.SetLogLevel(LogNone)
	if prev != LogBytes {
		t.Errorf("SetLogLevel returned %v, want LogBytes", prev)
	}
	c.SetLogLevel(prev)
	if c.LogLevel() != LogBytes {
		t.Errorf("LogLevel() = %v, want LogBytes", c.LogLevel())
	}
}
