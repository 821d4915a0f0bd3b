package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"travelmap-api/internal/controller"
	"travelmap-api/internal/feed"
	"travelmap-api/internal/handlers"
	"travelmap-api/internal/services"
	"travelmap-api/internal/testutil"
)

type result struct {
	Notice string           `json:"notice"`
	Scene  controller.Scene `json:"scene"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	cache := services.NewCacheService(time.Minute, time.Hour)
	t.Cleanup(cache.Close)
	images := services.NewImageService(nil, cache, logger)

	store := services.NewMemoryStore()
	pipeline := services.NewPipeline(services.ExifExtractor{}, services.EmbeddedEncoder{MaxDimension: 64}, logger)
	ctrl := controller.New(store, feed.NewService(store.Feed(), logger), pipeline, logger, controller.WithThumbnailCache(images))

	h := handlers.New(ctrl, images, logger, handlers.Options{MaxUploadBytes: 10 << 20})
	srv := httptest.NewServer(Setup(h))
	t.Cleanup(srv.Close)
	return srv
}

func uploadBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	files := []struct {
		name string
		data []byte
	}{
		{"A.jpg", testutil.JPEG(&testutil.EXIF{GPS: true, Lat: 35.6895, Lng: 139.6917, DateTimeOriginal: "2023:10:20 10:00:00"})},
		{"B.jpg", testutil.JPEG(nil)},
		{"C.jpg", testutil.JPEG(&testutil.EXIF{GPS: true, Lat: 35.0116, Lng: 135.7681, DateTimeOriginal: "2023:10:24 08:30:00"})},
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.name))
		hdr.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func do(t *testing.T, srv *httptest.Server, method, path, contentType string, body *bytes.Buffer) *http.Response {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, body string, wantStatus int) result {
	t.Helper()
	var buf *bytes.Buffer
	contentType := ""
	if body != "" {
		buf = bytes.NewBufferString(body)
		contentType = "application/json"
	}
	resp := do(t, srv, method, path, contentType, buf)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	var res result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return res
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestPhotoLifecycle(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadBody(t)
	resp := do(t, srv, http.MethodPost, "/photos", contentType, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var uploaded result
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatal(err)
	}
	if uploaded.Scene.PhotoCount != 2 {
		t.Fatalf("PhotoCount = %d, want 2", uploaded.Scene.PhotoCount)
	}
	if len(uploaded.Scene.FilterOptions) != 3 {
		t.Errorf("FilterOptions = %q", uploaded.Scene.FilterOptions)
	}

	res := doJSON(t, srv, http.MethodPost, "/map/route", "", http.StatusOK)
	if res.Scene.Route == nil {
		t.Error("route not drawn")
	}

	doJSON(t, srv, http.MethodPost, "/map/filter", `{"date":"1999-01-01"}`, http.StatusBadRequest)
	res = doJSON(t, srv, http.MethodPost, "/map/filter", `{"date":"2023-10-24"}`, http.StatusOK)
	if len(res.Scene.Markers) != 1 {
		t.Errorf("got %d markers after filter, want 1", len(res.Scene.Markers))
	}

	id := strings.TrimPrefix(res.Scene.Markers[0].Handle, "p-")
	res = doJSON(t, srv, http.MethodPost, "/photos/"+id+"/select", "", http.StatusOK)
	if res.Scene.Viewer == nil || res.Scene.Viewer.Download == nil {
		t.Fatalf("viewer = %+v", res.Scene.Viewer)
	}

	dl := do(t, srv, http.MethodGet, res.Scene.Viewer.Download.URL, "", nil)
	if dl.StatusCode != http.StatusOK || !strings.HasPrefix(dl.Header.Get("Content-Disposition"), "attachment") {
		t.Errorf("download = %d %q", dl.StatusCode, dl.Header.Get("Content-Disposition"))
	}

	thumb := do(t, srv, http.MethodGet, "/photos/"+id+"/thumbnail", "", nil)
	if thumb.StatusCode != http.StatusOK || thumb.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("thumbnail = %d %q", thumb.StatusCode, thumb.Header.Get("Content-Type"))
	}

	res = doJSON(t, srv, http.MethodDelete, "/photos", "", http.StatusConflict)
	if res.Notice == "" || res.Scene.PhotoCount != 2 {
		t.Errorf("unconfirmed clear = %+v", res)
	}
	doJSON(t, srv, http.MethodDelete, "/photos?confirm=true", "", http.StatusOK)

	list := do(t, srv, http.MethodGet, "/photos", "", nil)
	var photos []json.RawMessage
	if err := json.NewDecoder(list.Body).Decode(&photos); err != nil {
		t.Fatal(err)
	}
	if len(photos) != 0 {
		t.Errorf("GET /photos after clear returned %d records", len(photos))
	}

	if resp := do(t, srv, http.MethodGet, "/photos/"+id+"/thumbnail", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("thumbnail after clear: status %d", resp.StatusCode)
	}
}

func TestSharedFeed(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/shared", "", http.StatusConflict)

	body, contentType := uploadBody(t)
	do(t, srv, http.MethodPost, "/photos", contentType, body)
	scene := doJSON(t, srv, http.MethodPost, "/map/route", "", http.StatusOK).Scene
	id := strings.TrimPrefix(scene.Markers[0].Handle, "p-")

	doJSON(t, srv, http.MethodPost, "/photos/"+id+"/select", "", http.StatusOK)
	doJSON(t, srv, http.MethodPost, "/shared", "", http.StatusOK)
	dup := doJSON(t, srv, http.MethodPost, "/shared", "", http.StatusConflict)
	if dup.Notice == "" {
		t.Error("duplicate share returned no notice")
	}

	res := doJSON(t, srv, http.MethodPost, "/view", `{"mode":"shared"}`, http.StatusOK)
	if len(res.Scene.Feed) != 1 {
		t.Fatalf("feed = %+v", res.Scene.Feed)
	}
	sharedID := res.Scene.Feed[0].ID

	res = doJSON(t, srv, http.MethodPost, "/shared/"+sharedID+"/like", "", http.StatusOK)
	if res.Scene.Feed[0].LikeCount != 1 {
		t.Errorf("LikeCount = %d", res.Scene.Feed[0].LikeCount)
	}
	doJSON(t, srv, http.MethodPost, "/shared/"+sharedID+"/comments", `{"text":"  "}`, http.StatusConflict)
	res = doJSON(t, srv, http.MethodPost, "/shared/"+sharedID+"/comments", `{"text":"Beautiful!"}`, http.StatusOK)
	if len(res.Scene.Feed[0].Comments) != 1 {
		t.Errorf("comments = %q", res.Scene.Feed[0].Comments)
	}
	doJSON(t, srv, http.MethodPost, "/shared/missing/like", "", http.StatusNotFound)

	res = doJSON(t, srv, http.MethodPost, "/shared/"+sharedID+"/select", "", http.StatusOK)
	if res.Scene.Popup == "" || res.Scene.Viewport.Center == nil {
		t.Errorf("select feed item scene = %+v", res.Scene)
	}

	doJSON(t, srv, http.MethodPost, "/view", `{"mode":"gallery"}`, http.StatusConflict)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method, path, contentType, body string
		want                            int
	}{
		{http.MethodPost, "/photos", "text/plain", "hello", http.StatusBadRequest},
		{http.MethodPost, "/photos/abc/select", "", "", http.StatusBadRequest},
		{http.MethodPost, "/map/filter", "application/json", "{", http.StatusBadRequest},
		{http.MethodGet, "/images/alice/a.jpg", "", "", http.StatusNotFound},
		{http.MethodGet, "/downloads/unknown", "", "", http.StatusNotFound},
		{http.MethodPut, "/photos", "", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.contentType, bytes.NewBufferString(tt.body))
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
