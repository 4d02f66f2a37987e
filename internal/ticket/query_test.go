package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mini-rodalies-3d/ticketwatch/internal/provider"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(ctx context.Context, name string) (string, error) {
	if code, ok := f[name]; ok {
		return code, nil
	}
	return "", errors.New("station code not found: " + name)
}

var testStations = fakeResolver{"北京北": "VAP", "汉中东": "HZX"}

var testSpec = QuerySpec{FromStation: "北京北", ToStation: "汉中东", Date: "2025-07-12"}

// fakeProvider serves canned bodies per path and counts hits
type fakeProvider struct {
	mu       sync.Mutex
	hits     map[string]int
	queries  map[string]string
	handlers map[string]func(w http.ResponseWriter)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		hits:     make(map[string]int),
		queries:  make(map[string]string),
		handlers: make(map[string]func(w http.ResponseWriter)),
	}
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.hits[r.URL.Path]++
	p.queries[r.URL.Path] = r.URL.RawQuery
	h, ok := p.handlers[r.URL.Path]
	p.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w)
}

func (p *fakeProvider) body(path, body string) {
	p.handlers[path] = func(w http.ResponseWriter) {
		w.Write([]byte(body))
	}
}

func (p *fakeProvider) status(path string, code int) {
	p.handlers[path] = func(w http.ResponseWriter) {
		w.WriteHeader(code)
	}
}

func (p *fakeProvider) hitCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *fakeProvider) rawQuery(path string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries[path]
}

func (p *fakeProvider) apiHits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for path, c := range p.hits {
		if path != "/otn/leftTicket/init" {
			n += c
		}
	}
	return n
}

func ticketBody(t *testing.T, raws ...string) string {
	t.Helper()
	if raws == nil {
		raws = []string{}
	}
	body, err := json.Marshal(map[string]any{
		"httpstatus": 200,
		"data":       map[string]any{"flag": "1", "result": raws},
		"messages":   []string{},
		"status":     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

const queryPage = `<html><head>
<script type="text/javascript">
var ctx = '/otn/';
var CLeftTicketUrl = 'leftTicket/queryG';
</script></head><body>车票查询</body></html>`

func newTestQuerier(t *testing.T, p *fakeProvider) *Querier {
	t.Helper()
	server := httptest.NewServer(p)
	t.Cleanup(server.Close)

	client, err := provider.NewClient(provider.Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return NewQuerier(client, testStations, Options{
		BaseURL:   server.URL,
		Endpoints: []string{"leftTicket/query", "leftTicket/queryZ", "leftTicket/queryA"},
	})
}

func TestQuery_PageStrategy(t *testing.T) {
	p := newFakeProvider()
	p.body("/otn/leftTicket/init", queryPage)
	p.body("/otn/leftTicket/queryG", ticketBody(t, sampleRaw("G2203", map[int]string{30: "有"})))

	q := newTestQuerier(t, p)
	records := q.Query(context.Background(), testSpec)

	if len(records) != 1 || records[0].TrainCode != "G2203" {
		t.Fatalf("records = %v, expected G2203", records)
	}
	if got := records[0].Seat(SeatSecond); got != TokenPlenty {
		t.Errorf("Seat(second) = %q, expected %q", got, TokenPlenty)
	}
	if p.hitCount("/otn/leftTicket/query") != 0 {
		t.Error("direct API should not be tried after the page strategy succeeds")
	}

	expected := "leftTicketDTO.train_date=2025-07-12&leftTicketDTO.from_station=VAP&leftTicketDTO.to_station=HZX&purpose_codes=ADULT"
	if got := p.rawQuery("/otn/leftTicket/queryG"); got != expected {
		t.Errorf("query string = %q, expected %q", got, expected)
	}
	if page := p.rawQuery("/otn/leftTicket/init"); !strings.Contains(page, "linktypeid=dc") {
		t.Errorf("page query string = %q", page)
	}
}

func TestQuery_LoginPageSkipsCycle(t *testing.T) {
	p := newFakeProvider()
	p.body("/otn/leftTicket/init", `<html><body>请登录后再查询</body></html>`)
	p.body("/otn/leftTicket/query", ticketBody(t, sampleRaw("G1", nil)))

	q := newTestQuerier(t, p)
	records := q.Query(context.Background(), testSpec)

	if len(records) != 0 {
		t.Errorf("records = %v, expected none", records)
	}
	if n := p.apiHits(); n != 0 {
		t.Errorf("ticket endpoints contacted %d times after login page, expected 0", n)
	}
}

func TestQuery_UnresolvedStation(t *testing.T) {
	p := newFakeProvider()
	p.body("/otn/leftTicket/init", queryPage)

	q := newTestQuerier(t, p)
	spec := testSpec
	spec.ToStation = "不存在站"
	records := q.Query(context.Background(), spec)

	if len(records) != 0 {
		t.Errorf("records = %v, expected none", records)
	}
	if p.hitCount("/otn/leftTicket/init") != 0 || p.apiHits() != 0 {
		t.Error("no provider endpoint should be contacted when a station is unknown")
	}
}

func TestQuery_FallsBackToDirectAPI(t *testing.T) {
	p := newFakeProvider()
	p.status("/otn/leftTicket/init", http.StatusForbidden)
	p.body("/otn/leftTicket/query", "<html><body>网络可能存在问题</body></html>")
	p.body("/otn/leftTicket/queryZ", ticketBody(t,
		sampleRaw("G2203", map[int]string{30: "5"}),
		sampleRaw("D5", nil),
	))
	p.body("/otn/leftTicket/queryA", ticketBody(t, sampleRaw("K1", nil)))

	q := newTestQuerier(t, p)
	spec := testSpec
	spec.TrainCodes = []string{"G2203"}
	records := q.Query(context.Background(), spec)

	if len(records) != 1 || records[0].TrainCode != "G2203" {
		t.Fatalf("records = %v, expected G2203", records)
	}
	if p.hitCount("/otn/leftTicket/query") != 1 || p.hitCount("/otn/leftTicket/queryZ") != 1 {
		t.Error("endpoints should be tried in order")
	}
	if p.hitCount("/otn/leftTicket/queryA") != 0 {
		t.Error("endpoints after the first well-formed response should not be tried")
	}
}

func TestQuery_PageWithoutEndpointFallsBack(t *testing.T) {
	p := newFakeProvider()
	p.body("/otn/leftTicket/init", "<html><script>var x = 1;</script></html>")
	p.body("/otn/leftTicket/query", ticketBody(t, sampleRaw("G1", nil)))

	q := newTestQuerier(t, p)
	records := q.Query(context.Background(), testSpec)

	if len(records) != 1 || records[0].TrainCode != "G1" {
		t.Errorf("records = %v, expected G1", records)
	}
}

func TestQuery_EmptyEverywhere(t *testing.T) {
	p := newFakeProvider()
	p.body("/otn/leftTicket/init", queryPage)
	p.body("/otn/leftTicket/queryG", ticketBody(t))
	p.body("/otn/leftTicket/query", ticketBody(t))

	q := newTestQuerier(t, p)
	records := q.Query(context.Background(), testSpec)

	if len(records) != 0 {
		t.Errorf("records = %v, expected none", records)
	}
	if p.hitCount("/otn/leftTicket/query") != 1 {
		t.Error("an empty page result should fall through to the direct API")
	}
	if p.hitCount("/otn/leftTicket/queryZ") != 0 {
		t.Error("a well-formed empty response should stop the endpoint walk")
	}
}

func TestQuery_AllEndpointsFail(t *testing.T) {
	p := newFakeProvider()
	p.status("/otn/leftTicket/init", http.StatusNotFound)
	p.body("/otn/leftTicket/query", "")
	p.body("/otn/leftTicket/queryZ", `{"status":false}`)
	p.status("/otn/leftTicket/queryA", http.StatusBadRequest)

	q := newTestQuerier(t, p)
	if records := q.Query(context.Background(), testSpec); len(records) != 0 {
		t.Errorf("records = %v, expected none", records)
	}
	if p.hitCount("/otn/leftTicket/queryA") != 1 {
		t.Error("every endpoint should be tried")
	}
}

func TestQuery_Cancelled(t *testing.T) {
	p := newFakeProvider()
	p.body("/otn/leftTicket/init", queryPage)

	q := newTestQuerier(t, p)
	q.firstJitter = provider.Jitter{Min: time.Hour, Max: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if records := q.Query(ctx, testSpec); len(records) != 0 {
		t.Errorf("records = %v, expected none", records)
	}
	if p.hitCount("/otn/leftTicket/init") != 0 {
		t.Error("a cancelled query should not reach the provider")
	}
}

func TestExtractLeftTicketPath(t *testing.T) {
	tests := []struct {
		page     string
		expected string
	}{
		{queryPage, "leftTicket/queryG"},
		{"var CLeftTicketUrl='leftTicket/queryO';", "leftTicket/queryO"},
	}
	for _, tt := range tests {
		got, err := extractLeftTicketPath([]byte(tt.page))
		if err != nil || got != tt.expected {
			t.Errorf("extractLeftTicketPath = %q, %v; expected %q", got, err, tt.expected)
		}
	}

	if _, err := extractLeftTicketPath([]byte("<html></html>")); err == nil {
		t.Error("a page without CLeftTicketUrl should fail")
	}
}
