package ssl_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rohankumardubey/xnio-core/adapters"
	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/channels"
	"github.com/rohankumardubey/xnio-core/option"
	"github.com/rohankumardubey/xnio-core/ssl"
	"github.com/rohankumardubey/xnio-core/transport"
)

// xorKey is the fake cipher: wrap and unwrap XOR every byte.
const xorKey = 0x5A

// fakeEngine is a deterministic oracle. Its handshake is a one-byte token
// exchange: the client wraps the token first and then unwraps the server's;
// the server mirrors that. Application data is XOR-"encrypted".
type fakeEngine struct {
	mu          sync.Mutex
	client      bool
	started     bool
	sentToken   bool
	gotToken    bool
	taskDone    bool
	closed      bool
	needAuth    bool
	wantAuth    bool
	sessions    bool
	enabledCS   []string
	enabledPr   []string
	supportedCS []string
	supportedPr []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		sessions:    true,
		supportedCS: []string{"FAKE_A", "FAKE_B", "FAKE_C"},
		supportedPr: []string{"FAKEv1", "FAKEv2"},
	}
}

func (e *fakeEngine) BeginHandshake() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = true
	return nil
}

func (e *fakeEngine) HandshakeStatus() ssl.HandshakeStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *fakeEngine) statusLocked() ssl.HandshakeStatus {
	if !e.started || (e.sentToken && e.gotToken) {
		return ssl.NotHandshaking
	}
	if !e.taskDone {
		return ssl.NeedTask
	}
	if e.client {
		if !e.sentToken {
			return ssl.NeedWrap
		}
		return ssl.NeedUnwrap
	}
	if !e.gotToken {
		return ssl.NeedUnwrap
	}
	return ssl.NeedWrap
}

func (e *fakeEngine) DelegatedTask() func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.taskDone || !e.started {
		return nil
	}
	return func() {
		e.mu.Lock()
		e.taskDone = true
		e.mu.Unlock()
	}
}

func (e *fakeEngine) Wrap(src, dst *buffers.Buffer) (ssl.EngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ssl.EngineResult{Status: ssl.StatusClosed, Handshake: e.statusLocked()}, nil
	}
	if st := e.statusLocked(); st == ssl.NeedWrap {
		if err := dst.Put(0x7E); err != nil {
			return ssl.EngineResult{Status: ssl.StatusOverflow, Handshake: st}, nil
		}
		e.sentToken = true
		return ssl.EngineResult{Status: ssl.StatusOK, Produced: 1, Handshake: e.statusLocked()}, nil
	}
	consumed := 0
	produced := 0
	for src.HasRemaining() && dst.HasRemaining() {
		b, _ := src.Get()
		_ = dst.Put(b ^ xorKey)
		consumed++
		produced++
	}
	status := ssl.StatusOK
	if consumed == 0 && src.HasRemaining() {
		status = ssl.StatusOverflow
	}
	return ssl.EngineResult{Status: status, Consumed: consumed, Produced: produced, Handshake: e.statusLocked()}, nil
}

func (e *fakeEngine) Unwrap(src, dst *buffers.Buffer) (ssl.EngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.statusLocked(); st == ssl.NeedUnwrap {
		if !src.HasRemaining() {
			return ssl.EngineResult{Status: ssl.StatusUnderflow, Handshake: st}, nil
		}
		b, _ := src.Get()
		if b != 0x7E {
			return ssl.EngineResult{Status: ssl.StatusClosed, Consumed: 1, Handshake: st}, nil
		}
		e.gotToken = true
		return ssl.EngineResult{Status: ssl.StatusOK, Consumed: 1, Handshake: e.statusLocked()}, nil
	}
	if !src.HasRemaining() {
		return ssl.EngineResult{Status: ssl.StatusUnderflow, Handshake: e.statusLocked()}, nil
	}
	consumed := 0
	produced := 0
	for src.HasRemaining() && dst.HasRemaining() {
		b, _ := src.Get()
		_ = dst.Put(b ^ xorKey)
		consumed++
		produced++
	}
	status := ssl.StatusOK
	if produced == 0 {
		status = ssl.StatusOverflow
	}
	return ssl.EngineResult{Status: status, Consumed: consumed, Produced: produced, Handshake: e.statusLocked()}, nil
}

func (e *fakeEngine) CloseOutbound() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

func (e *fakeEngine) SetClientMode(client bool) { e.client = client }

func (e *fakeEngine) SetNeedClientAuth(need bool) { e.needAuth = need }

func (e *fakeEngine) SetWantClientAuth(want bool) { e.wantAuth = want }

func (e *fakeEngine) SetEnableSessionCreation(enable bool) { e.sessions = enable }

func (e *fakeEngine) SupportedCipherSuites() []string { return e.supportedCS }

func (e *fakeEngine) SetEnabledCipherSuites(suites []string) { e.enabledCS = suites }

func (e *fakeEngine) SupportedProtocols() []string { return e.supportedPr }

func (e *fakeEngine) SetEnabledProtocols(protocols []string) { e.enabledPr = protocols }

func TestConfigureEngineIntersectsSets(t *testing.T) {
	e := newFakeEngine()
	b := option.NewBuilder()
	option.Set(b, option.SSLEnabledCipherSuites, option.SequenceOf("FAKE_B", "NOPE", "FAKE_A"))
	option.Set(b, option.SSLEnabledProtocols, option.SequenceOf("FAKEv2", "SSLv0"))
	option.Set(b, option.SSLClientAuth, option.ClientAuthRequired)
	option.Set(b, option.SSLEnableSessionCreation, false)
	ssl.ConfigureEngine(e, b.Map(), true)

	if e.client {
		t.Error("server wrapper defaulted to client mode")
	}
	if len(e.enabledCS) != 2 || e.enabledCS[0] != "FAKE_B" || e.enabledCS[1] != "FAKE_A" {
		t.Errorf("suites = %v", e.enabledCS)
	}
	if len(e.enabledPr) != 1 || e.enabledPr[0] != "FAKEv2" {
		t.Errorf("protocols = %v", e.enabledPr)
	}
	if !e.needAuth {
		t.Error("REQUIRED did not demand client auth")
	}
	if e.sessions {
		t.Error("session creation flag ignored")
	}
}

func TestConfigureEngineClientModeOverride(t *testing.T) {
	e := newFakeEngine()
	b := option.NewBuilder()
	option.Set(b, option.SSLUseClientMode, true)
	ssl.ConfigureEngine(e, b.Map(), true)
	if !e.client {
		t.Error("explicit client mode ignored on server wrapper")
	}
}

func TestSSLHandshakeAndDataOverPipe(t *testing.T) {
	left, right := transport.NewPipe()
	defer left.Close()
	defer right.Close()

	clientEngine := newFakeEngine()
	serverEngine := newFakeEngine()

	client, err := ssl.NewClientChannel(left, clientEngine, adapters.DirectExecutor(), option.EmptyMap)
	if err != nil {
		t.Fatal(err)
	}
	server, err := ssl.NewServerChannel(right, serverEngine, adapters.DirectExecutor(), option.EmptyMap)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	var clientErr, serverErr error
	go func() {
		defer wg.Done()
		clientErr = client.Handshake()
	}()
	go func() {
		defer wg.Done()
		serverErr = server.Handshake()
	}()
	wg.Wait()
	if clientErr != nil || serverErr != nil {
		t.Fatalf("handshake: client=%v server=%v", clientErr, serverErr)
	}

	cb := channels.NewBlockingByteChannel(client, 2*time.Second, 2*time.Second)
	sb := channels.NewBlockingByteChannel(server, 2*time.Second, 2*time.Second)

	if _, err := cb.WriteBuffer(buffers.Wrap([]byte("secret"))); err != nil {
		t.Fatal(err)
	}
	dst := buffers.New(6)
	for dst.HasRemaining() {
		if _, err := sb.ReadBuffer(dst); err != nil {
			t.Fatal(err)
		}
	}
	if string(dst.Flip().Bytes()) != "secret" {
		t.Errorf("payload = %q", dst.Bytes())
	}
}

func TestWrappingListenerClosesOnFailure(t *testing.T) {
	left, right := transport.NewPipe()
	defer left.Close()

	listener := ssl.WrappingChannelListener(func() ssl.Engine {
		return newFakeEngine()
	}, adapters.DirectExecutor(), option.EmptyMap,
		api.ChannelListenerFunc[*ssl.WrappingSSLChannel](func(*ssl.WrappingSSLChannel) {
			panic("listener failed mid-setup")
		}))

	func() {
		defer func() { _ = recover() }()
		listener.HandleEvent(right)
	}()
	if right.IsOpen() {
		t.Fatal("underlying channel left open after listener failure")
	}
}
