package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/lsm9ds0_imu/internal/config"
	"github.com/relabs-tech/lsm9ds0_imu/internal/i2cbus"
	"github.com/relabs-tech/lsm9ds0_imu/internal/imu"
	"github.com/relabs-tech/lsm9ds0_imu/internal/lsm9ds0"
	"github.com/relabs-tech/lsm9ds0_imu/internal/testutils/inject"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeBroker records publishes and lets tests deliver messages to
// subscribers.
type fakeBroker struct {
	mu         sync.Mutex
	publishErr error
	subErr     error
	messages   []published
	handlers   map[string]mqtt.MessageHandler
}

func (b *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return newToken(b.publishErr)
	}
	b.messages = append(b.messages, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return newToken(nil)
}

func (b *fakeBroker) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return newToken(b.subErr)
	}
	if b.handlers == nil {
		b.handlers = map[string]mqtt.MessageHandler{}
	}
	b.handlers[topic] = callback
	return newToken(nil)
}

func (b *fakeBroker) deliver(topic string, payload []byte) {
	b.mu.Lock()
	h := b.handlers[topic]
	b.mu.Unlock()
	h(nil, &fakeMessage{topic: topic, payload: payload})
}

func (b *fakeBroker) published() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.messages...)
}

func simDriver(t *testing.T) *lsm9ds0.Driver {
	t.Helper()
	cfg := lsm9ds0.DefaultConfig()
	d := lsm9ds0.NewDriver(cfg, lsm9ds0.SimOpener(cfg), zaptest.NewLogger(t).Sugar())
	test.That(t, d.Init(), test.ShouldBeNil)
	t.Cleanup(func() { d.Deinit() })
	return d
}

func TestProducerTick(t *testing.T) {
	broker := &fakeBroker{}
	p := &Producer{Source: simDriver(t), Pub: broker, Topic: "lsm9ds0/imu", Logger: zaptest.NewLogger(t).Sugar()}

	test.That(t, p.Tick(), test.ShouldBeNil)
	test.That(t, p.Tick(), test.ShouldBeNil)

	msgs := broker.published()
	test.That(t, len(msgs), test.ShouldEqual, 2)
	test.That(t, msgs[0].topic, test.ShouldEqual, "lsm9ds0/imu")
	test.That(t, msgs[0].retained, test.ShouldBeFalse)

	var s imu.Sample
	test.That(t, json.Unmarshal(msgs[1].payload, &s), test.ShouldBeNil)
	test.That(t, s.OK(), test.ShouldBeTrue)
	test.That(t, s.Timestamp, test.ShouldBeGreaterThan, 0.0)
	test.That(t, string(msgs[1].payload), test.ShouldContainSubstring, `"timestamp_s"`)
}

func TestProducerSkipsBadSamples(t *testing.T) {
	fail := true
	src := &inject.Driver{ReadFunc: func() (imu.Sample, error) {
		if fail {
			return imu.Sample{Status: imu.StatusReadError}, errors.New("remote I/O error")
		}
		return imu.Sample{Ax: 1, Timestamp: 1}, nil
	}}
	broker := &fakeBroker{}
	p := &Producer{Source: src, Pub: broker, Topic: "t", Logger: zaptest.NewLogger(t).Sugar()}

	test.That(t, p.Tick(), test.ShouldBeNil)
	test.That(t, p.Tick(), test.ShouldBeNil)
	test.That(t, broker.published(), test.ShouldBeEmpty)
	test.That(t, p.failing, test.ShouldBeTrue)
	test.That(t, p.failed, test.ShouldEqual, 2)

	fail = false
	test.That(t, p.Tick(), test.ShouldBeNil)
	test.That(t, len(broker.published()), test.ShouldEqual, 1)
	test.That(t, p.failing, test.ShouldBeFalse)

	broker.publishErr = errors.New("not connected")
	err := p.Tick()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "MQTT publish t")
}

func TestProducerRun(t *testing.T) {
	broker := &fakeBroker{}
	p := &Producer{Source: simDriver(t), Pub: broker, Topic: "t", Logger: zaptest.NewLogger(t).Sugar()}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	test.That(t, p.Run(ctx, 5*time.Millisecond), test.ShouldBeNil)
	test.That(t, len(broker.published()), test.ShouldBeGreaterThan, 0)
}

func TestPublishStatus(t *testing.T) {
	broker := &fakeBroker{}
	cfg := config.Default()
	test.That(t, publishStatus(broker, cfg, StateOnline), test.ShouldBeNil)

	msgs := broker.published()
	test.That(t, len(msgs), test.ShouldEqual, 1)
	test.That(t, msgs[0].topic, test.ShouldEqual, cfg.TopicStatus)
	test.That(t, msgs[0].retained, test.ShouldBeTrue)

	var st ProducerStatus
	test.That(t, json.Unmarshal(msgs[0].payload, &st), test.ShouldBeNil)
	test.That(t, st.State, test.ShouldEqual, StateOnline)
	test.That(t, st.Bus, test.ShouldEqual, cfg.I2CDevice)
}

func TestSubscribeSamples(t *testing.T) {
	broker := &fakeBroker{}
	cache := NewSampleCache()
	logger := zaptest.NewLogger(t).Sugar()

	test.That(t, subscribeSamples(broker, "imu", logger, cache.Store), test.ShouldBeNil)

	broker.deliver("imu", []byte("not json"))
	_, ok := cache.Latest()
	test.That(t, ok, test.ShouldBeFalse)

	broker.deliver("imu", []byte(`{"timestamp_s":12.5,"ax":1,"ay":2,"az":3,"gx":-4,"gy":-5,"gz":-6,"status":0}`))
	s, ok := cache.Latest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s, test.ShouldResemble, imu.Sample{Timestamp: 12.5, Ax: 1, Ay: 2, Az: 3, Gx: -4, Gy: -5, Gz: -6})

	broker.subErr = errors.New("not authorized")
	err := subscribeSamples(broker, "imu", logger, cache.Store)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "MQTT subscribe imu")
}

func TestSampleCacheWatch(t *testing.T) {
	cache := NewSampleCache()
	test.That(t, cache.Age(), test.ShouldEqual, time.Duration(0))

	ch, cancel := cache.Watch(1)
	cache.Store(imu.Sample{Ax: 1})
	cache.Store(imu.Sample{Ax: 2}) // dropped, buffer full

	got := <-ch
	test.That(t, got.Ax, test.ShouldEqual, int16(1))

	cancel()
	cancel()
	cache.Store(imu.Sample{Ax: 3})
	select {
	case s := <-ch:
		t.Fatalf("unexpected sample after cancel: %+v", s)
	default:
	}

	latest, ok := cache.Latest()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, latest.Ax, test.ShouldEqual, int16(3))
}

func TestFormatSample(t *testing.T) {
	line := FormatSample(imu.Sample{Timestamp: 1.5, Ax: -1, Gz: 250})
	test.That(t, line, test.ShouldStartWith, "[IMU] t=1.500")
	test.That(t, line, test.ShouldContainSubstring, "ax=    -1")
	test.That(t, line, test.ShouldContainSubstring, "gz=   250")

	test.That(t, FormatSample(imu.Sample{Status: imu.StatusNotInitialized}), test.ShouldEqual, "[IMU] status=not initialized")
}

func TestRunConsole(t *testing.T) {
	var out bytes.Buffer
	err := RunConsole(context.Background(), simDriver(t), time.Millisecond, 3, &out)
	test.That(t, err, test.ShouldBeNil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	test.That(t, len(lines), test.ShouldEqual, 3)
	for _, l := range lines {
		test.That(t, l, test.ShouldStartWith, "[IMU] t=")
	}

	t.Run("uninitialized driver prints status", func(t *testing.T) {
		cfg := lsm9ds0.DefaultConfig()
		d := lsm9ds0.NewDriver(cfg, lsm9ds0.SimOpener(cfg), nil)
		var out bytes.Buffer
		test.That(t, RunConsole(context.Background(), d, time.Millisecond, 1, &out), test.ShouldBeNil)
		test.That(t, out.String(), test.ShouldEqual, "[IMU] status=not initialized\n")
	})
}

func TestWebServer(t *testing.T) {
	cache := NewSampleCache()
	srv := httptest.NewServer(NewWebServer(cache, "", zaptest.NewLogger(t).Sugar()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/imu")
	test.That(t, err, test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusServiceUnavailable)

	first := imu.Sample{Timestamp: 10, Ax: 100, Gz: -7}
	cache.Store(first)
	cache.SetStatus(ProducerStatus{State: StateOnline, Bus: "/dev/i2c-2"})

	resp, err = http.Get(srv.URL + "/api/imu")
	test.That(t, err, test.ShouldBeNil)
	var got imu.Sample
	test.That(t, json.NewDecoder(resp.Body).Decode(&got), test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, got, test.ShouldResemble, first)

	resp, err = http.Get(srv.URL + "/api/status")
	test.That(t, err, test.ShouldBeNil)
	var st ProducerStatus
	test.That(t, json.NewDecoder(resp.Body).Decode(&st), test.ShouldBeNil)
	resp.Body.Close()
	test.That(t, st.State, test.ShouldEqual, StateOnline)

	t.Run("websocket stream", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		test.That(t, err, test.ShouldBeNil)
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		var s imu.Sample
		test.That(t, conn.ReadJSON(&s), test.ShouldBeNil)
		test.That(t, s, test.ShouldResemble, first)

		next := imu.Sample{Timestamp: 11, Ay: 42}
		cache.Store(next)
		test.That(t, conn.ReadJSON(&s), test.ShouldBeNil)
		test.That(t, s, test.ShouldResemble, next)
	})
}

func newDebugServer(t *testing.T) (*RegisterDebugServer, *i2cbus.RegisterFile) {
	t.Helper()
	cfg := lsm9ds0.DefaultConfig()
	rf := i2cbus.NewRegisterFile(cfg.XM.Addr, cfg.G.Addr)
	rf.Set(cfg.XM.Addr, cfg.XM.WhoAmIReg, cfg.XM.ExpectedID)
	rf.Set(cfg.G.Addr, cfg.G.WhoAmIReg, cfg.G.ExpectedID)

	d := lsm9ds0.NewDriver(cfg, rf.Opener(), zaptest.NewLogger(t).Sugar())
	test.That(t, d.Init(), test.ShouldBeNil)
	t.Cleanup(func() { d.Deinit() })

	writable := func(reg byte) bool { return reg >= 0x20 && reg <= 0x25 }
	s := NewRegisterDebugServer(d, writable, zaptest.NewLogger(t).Sugar())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, rf
}

func TestRegisterDebugDispatch(t *testing.T) {
	s, rf := newDebugServer(t)

	t.Run("read", func(t *testing.T) {
		resp := s.Dispatch(RegisterCmd{Action: "read", Unit: "g", Address: "0x0f"})
		test.That(t, resp.Type, test.ShouldEqual, "register_data")
		test.That(t, resp.Value, test.ShouldEqual, "0xD4")
		test.That(t, resp.Address, test.ShouldEqual, "0x0F")
	})

	t.Run("write within range", func(t *testing.T) {
		resp := s.Dispatch(RegisterCmd{Action: "write", Unit: "xm", Address: "0x21", Value: "0x08"})
		test.That(t, resp.Type, test.ShouldEqual, "register_data")
		test.That(t, resp.Message, test.ShouldEqual, "write successful")
		test.That(t, rf.Get(lsm9ds0.AddrXM, 0x21), test.ShouldEqual, byte(0x08))
	})

	t.Run("write outside range", func(t *testing.T) {
		resp := s.Dispatch(RegisterCmd{Action: "write", Unit: "xm", Address: "0x0f", Value: "0x00"})
		test.That(t, resp.Type, test.ShouldEqual, "error")
		test.That(t, resp.Message, test.ShouldContainSubstring, "not in allowed write ranges")
		test.That(t, rf.Get(lsm9ds0.AddrXM, 0x0f), test.ShouldEqual, lsm9ds0.IDXM)
	})

	t.Run("read_all", func(t *testing.T) {
		resp := s.Dispatch(RegisterCmd{Action: "read_all", Unit: "g"})
		test.That(t, resp.Type, test.ShouldEqual, "register_data")
		test.That(t, len(resp.Registers), test.ShouldEqual, len(lsm9ds0.RegisterMap("g")))
		test.That(t, resp.Registers["0x20"], test.ShouldEqual, "0x0F")
	})

	t.Run("export_config", func(t *testing.T) {
		resp := s.Dispatch(RegisterCmd{Action: "export_config", Unit: "xm"})
		test.That(t, resp.Type, test.ShouldEqual, "export_config")
		test.That(t, resp.Filename, test.ShouldEqual, "lsm9ds0_xm_20260301_120000_registers.json")
		test.That(t, resp.Config.Registers["0x0F"], test.ShouldEqual, "0x49")
		test.That(t, resp.Config.Registers["0x20"], test.ShouldEqual, "0x57")
	})

	t.Run("init restores control registers", func(t *testing.T) {
		rf.Set(lsm9ds0.AddrXM, lsm9ds0.RegCtrl1, 0x00)
		resp := s.Dispatch(RegisterCmd{Action: "init"})
		test.That(t, resp.Type, test.ShouldEqual, "status")
		test.That(t, resp.Status, test.ShouldEqual, "initialized")
		test.That(t, rf.Get(lsm9ds0.AddrXM, lsm9ds0.RegCtrl1), test.ShouldEqual, lsm9ds0.XMCtrl1Value)
	})

	t.Run("bad requests", func(t *testing.T) {
		for _, cmd := range []RegisterCmd{
			{},
			{Action: "format_disk"},
			{Action: "read", Unit: "mag", Address: "0x0f"},
			{Action: "read", Unit: "xm"},
			{Action: "read", Unit: "xm", Address: "zz"},
			{Action: "write", Unit: "xm", Address: "0x20", Value: "0x100"},
		} {
			test.That(t, s.Dispatch(cmd).Type, test.ShouldEqual, "error")
		}
	})
}

func TestRegisterDebugWebsocket(t *testing.T) {
	s, _ := newDebugServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var resp RegisterResponse
	test.That(t, conn.ReadJSON(&resp), test.ShouldBeNil)
	test.That(t, resp.Type, test.ShouldEqual, "register_map")
	test.That(t, resp.Unit, test.ShouldEqual, "xm")
	test.That(t, resp.RegisterMap, test.ShouldNotBeEmpty)

	test.That(t, conn.WriteJSON(RegisterCmd{Action: "read", Unit: "xm", Address: "0x0F"}), test.ShouldBeNil)
	resp = RegisterResponse{}
	test.That(t, conn.ReadJSON(&resp), test.ShouldBeNil)
	test.That(t, resp.Value, test.ShouldEqual, "0x49")

	t.Run("live sample endpoint", func(t *testing.T) {
		r, err := http.Get(srv.URL + "/api/imu")
		test.That(t, err, test.ShouldBeNil)
		defer r.Body.Close()
		test.That(t, r.StatusCode, test.ShouldEqual, http.StatusOK)
		var sample imu.Sample
		test.That(t, json.NewDecoder(r.Body).Decode(&sample), test.ShouldBeNil)
		test.That(t, sample.OK(), test.ShouldBeTrue)
	})
}

type recordingScreen struct {
	frames []image.Image
}

func (s *recordingScreen) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (s *recordingScreen) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.frames = append(s.frames, src)
	return nil
}

func litPixels(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r != 0 {
				n++
			}
		}
	}
	return n
}

func TestDisplay(t *testing.T) {
	screen := &recordingScreen{}
	cache := NewSampleCache()

	test.That(t, showSplash(screen), test.ShouldBeNil)
	test.That(t, updateDisplay(screen, cache), test.ShouldBeNil)
	cache.Store(imu.Sample{Ax: 12345, Ay: -2, Az: 16384, Gx: 1, Gy: 2, Gz: 3})
	test.That(t, updateDisplay(screen, cache), test.ShouldBeNil)
	cache.SetStatus(ProducerStatus{State: StateOffline})
	test.That(t, updateDisplay(screen, cache), test.ShouldBeNil)

	test.That(t, len(screen.frames), test.ShouldEqual, 4)
	for _, f := range screen.frames {
		test.That(t, f.Bounds(), test.ShouldResemble, image.Rect(0, 0, 128, 64))
		test.That(t, litPixels(f), test.ShouldBeGreaterThan, 0)
	}
	// four lines of numbers light more pixels than the waiting screen
	test.That(t, litPixels(screen.frames[2]), test.ShouldBeGreaterThan, litPixels(screen.frames[1]))
}

func TestRenderSampleBlankLines(t *testing.T) {
	empty := renderLines(0)
	test.That(t, litPixels(empty), test.ShouldEqual, 0)
}
