package codec_test

import (
	"net"
	"testing"
	"time"

	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/channels"
	"github.com/rohankumardubey/xnio-core/codec"
	"github.com/rohankumardubey/xnio-core/option"
	"github.com/rohankumardubey/xnio-core/transport"
)

type ping struct {
	Seq  int    `msgpack:"seq"`
	Body string `msgpack:"body"`
}

func TestEncodeDecode(t *testing.T) {
	in := ping{Seq: 7, Body: "payload"}
	data, err := codec.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	var out ping
	if err := codec.Decode(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip = %+v", out)
	}
}

func TestMessageCodecOverUDP(t *testing.T) {
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	go func() {
		buf := make([]byte, 2048)
		n, addr, err := server.ReadFromUDP(buf)
		if err != nil {
			return
		}
		_, _ = server.WriteToUDP(buf[:n], addr)
	}()

	f := transport.NewUDPConnector(option.EmptyMap).ConnectTo(server.LocalAddr(), nil, nil)
	ch, err := f.Get()
	if err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	mc := codec.NewMessageCodec(ch)
	want := ping{Seq: 1, Body: "echo me"}
	if err := mc.Send(want); err != nil {
		t.Fatal(err)
	}
	var got ping
	done := make(chan error, 1)
	go func() { done <- mc.Receive(&got) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receive timed out")
	}
	if got != want {
		t.Fatalf("echo = %+v", got)
	}
}

func TestDecodingHandlerOverFramedPipe(t *testing.T) {
	left, right := transport.NewPipe()
	defer left.Close()
	defer right.Close()

	writer := channels.NewMessageWriter(left, option.EmptyMap)
	setter := channels.NewMessageReader(right, option.EmptyMap)

	got := make(chan ping, 1)
	setter.Set(&codec.DecodingHandler[ping]{
		OnMessage: func(v *ping) { got <- *v },
		OnError:   func(err error) { t.Errorf("handler error: %v", err) },
	})

	data, err := codec.Encode(ping{Seq: 3, Body: "framed"})
	if err != nil {
		t.Fatal(err)
	}
	if err := channels.SendBlocking(writer, buffers.Wrap(data)); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-got:
			if v.Seq != 3 || v.Body != "framed" {
				t.Fatalf("decoded = %+v", v)
			}
			return
		case <-deadline:
			t.Fatal("no message decoded")
		default:
			right.ResumeReads()
			time.Sleep(5 * time.Millisecond)
		}
	}
}
