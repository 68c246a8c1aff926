package delugerpc

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRequestBuilderFinalizeResets(t *testing.T) {
	b := NewRequestBuilder("core.pause_torrent").AddParam("abc").AddParams(1, true)
	if b.Len() != 3 {
		t.Fatalf("Len: %d", b.Len())
	}
	req, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if req.Method != "core.pause_torrent" || req.ID != RequestID || len(req.Params) != 3 {
		t.Fatalf("unexpected request %+v", req)
	}
	if b.Method() != "" || b.Len() != 0 {
		t.Fatalf("builder not reset: %q %d", b.Method(), b.Len())
	}

	req2, err := b.Start("web.connected").Finalize()
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if req2.Method != "web.connected" || len(req2.Params) != 0 {
		t.Fatalf("reused builder leaked state: %+v", req2)
	}
}

func TestRequestWireForm(t *testing.T) {
	req, err := NewRequestBuilder("daemon.get_version").Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"method":"daemon.get_version","params":[],"id":1}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}

	req, _ = NewRequestBuilder("core.add_torrent_magnet").
		AddParams("magnet:?xt=1", NewOptions(AddPaused(true))).Finalize()
	data, _ = json.Marshal(*req)
	want = `{"method":"core.add_torrent_magnet","params":["magnet:?xt=1",{"add_paused":true}],"id":1}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestRequestBuilderEncodesEagerly(t *testing.T) {
	ids := []string{"a"}
	b := NewRequestBuilder("core.queue_top").AddParam(ids)
	ids[0] = "b"
	req, _ := b.Finalize()
	if string(req.Params[0]) != `["a"]` {
		t.Fatalf("param not captured at add time: %s", req.Params[0])
	}
}

func TestRequestBuilderStickyError(t *testing.T) {
	b := NewRequestBuilder("core.set_config").AddParam(make(chan int)).AddParam("ok")
	if b.Len() != 0 {
		t.Fatalf("params added after encode failure")
	}
	_, err := b.Finalize()
	if err == nil || !strings.Contains(err.Error(), "param 0 of core.set_config") {
		t.Fatalf("got %v", err)
	}
	if _, err := b.Start("x").Finalize(); err != nil {
		t.Fatalf("error survived reset: %v", err)
	}
}

func TestRequestBuilderNoMethod(t *testing.T) {
	if _, err := (&RequestBuilder{}).Finalize(); err != errNoMethod {
		t.Fatalf("got %v, want errNoMethod", err)
	}
}

func TestRequestBuilderReset(t *testing.T) {
	b := NewRequestBuilder("m").AddParam(1)
	b.Reset()
	if b.Method() != "" || b.Len() != 0 {
		t.Fatalf("Reset left state")
	}
}
