package flow

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// request is a mocked HTTP traffic log line: caller, URL, user agent.
type request struct {
	caller string
	url    string
	agent  string
}

func repeat(r request, n int) []request {
	out := make([]request, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func trafficLogs() []request {
	var logs []request
	logs = append(logs, repeat(request{"web", "http://serviceA/foo/bar", "curl"}, 10)...)
	logs = append(logs, repeat(request{"web", "http://serviceA/foo/bar", "wget"}, 5)...)
	logs = append(logs, repeat(request{"web", "http://serviceB/bar", "curl"}, 20)...)
	logs = append(logs, repeat(request{"cron", "http://serviceA/test", "guzzle"}, 5)...)
	return logs
}

// byCallerAndURL groups requests by caller and URL, ignoring the user agent.
type byCallerAndURL struct{}

func (byCallerAndURL) Classify(r request) string {
	return r.caller + "-" + r.url
}

func (byCallerAndURL) Summarize(rs []request) (Draft, error) {
	first := rs[0]
	host := strings.Split(first.url, "/")[2]
	return Draft{
		Source:   first.caller,
		Edge:     "http",
		Target:   host,
		Metadata: fmt.Sprintf("%d requests", len(rs)),
	}, nil
}

func TestAggregate_TrafficLogs(t *testing.T) {
	edges, err := Aggregate(trafficLogs(), byCallerAndURL{})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if len(edges) != 3 {
		t.Fatalf("Aggregate() returned %d edges, want 3", len(edges))
	}

	want := []struct {
		source, target, metadata string
		value                    float64
		tsv                      string
	}{
		{"web", "serviceA", "15 requests", 0.75, "web\thttp\tserviceA\t0.7500\t15 requests"},
		{"web", "serviceB", "20 requests", 1, "web\thttp\tserviceB\t1.0000\t20 requests"},
		{"cron", "serviceA", "5 requests", 0.25, "cron\thttp\tserviceA\t0.2500\t5 requests"},
	}

	for i, w := range want {
		e := edges[i]
		if e.Source != w.source || e.Edge != "http" || e.Target != w.target {
			t.Errorf("edge %d = %s -%s-> %s, want %s -http-> %s", i, e.Source, e.Edge, e.Target, w.source, w.target)
		}
		if e.Metadata != w.metadata {
			t.Errorf("edge %d metadata = %q, want %q", i, e.Metadata, w.metadata)
		}
		if e.Value == nil || *e.Value != w.value {
			t.Errorf("edge %d value = %v, want %v", i, e.Value, w.value)
		}
		if got := FormatTSV(e); got != w.tsv {
			t.Errorf("FormatTSV(edge %d) = %q, want %q", i, got, w.tsv)
		}
	}
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	keys := []string{"A", "B", "A", "C"}

	c := ClassifierFuncs[string, string]{
		ClassifyFunc: func(s string) string { return s },
		SummarizeFunc: func(group []string) (Draft, error) {
			return Draft{Source: group[0], Target: "sink"}, nil
		},
	}

	edges, err := Aggregate(keys, c)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}

	var got []string
	for _, e := range edges {
		got = append(got, e.Source)
	}
	if want := []string{"A", "B", "C"}; !slices.Equal(got, want) {
		t.Errorf("Aggregate() order = %v, want %v", got, want)
	}

	if *edges[0].Value != 1.0 {
		t.Errorf("top group value = %v, want 1.0", *edges[0].Value)
	}
	if *edges[1].Value != 0.5 || *edges[2].Value != 0.5 {
		t.Errorf("other values = %v, %v, want 0.5", *edges[1].Value, *edges[2].Value)
	}
}

func TestAggregate_TiedTopGroups(t *testing.T) {
	entries := []int{1, 2, 1, 2, 3}

	c := ClassifierFuncs[int, int]{
		ClassifyFunc: func(n int) int { return n },
		SummarizeFunc: func(group []int) (Draft, error) {
			return Draft{Source: fmt.Sprint(group[0]), Target: "t"}, nil
		},
	}

	edges, err := Aggregate(entries, c)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if *edges[0].Value != 1.0 || *edges[1].Value != 1.0 {
		t.Errorf("tied top groups = %v, %v, want both 1.0", *edges[0].Value, *edges[1].Value)
	}
	if *edges[2].Value != 0.5 {
		t.Errorf("single entry value = %v, want 0.5", *edges[2].Value)
	}
}

func TestAggregate_SummarizeSeesWholeGroupInOrder(t *testing.T) {
	entries := []request{
		{"web", "http://a/", "first"},
		{"cron", "http://b/", "other"},
		{"web", "http://a/", "second"},
	}

	var agents []string
	c := ClassifierFuncs[request, string]{
		ClassifyFunc: func(r request) string { return r.caller },
		SummarizeFunc: func(group []request) (Draft, error) {
			if group[0].caller == "web" {
				for _, r := range group {
					agents = append(agents, r.agent)
				}
			}
			return Draft{Source: group[0].caller, Target: "x"}, nil
		},
	}

	if _, err := Aggregate(entries, c); err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if want := []string{"first", "second"}; !slices.Equal(agents, want) {
		t.Errorf("group entries = %v, want %v", agents, want)
	}
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil, byCallerAndURL{})
	if err == nil {
		t.Fatal("Aggregate() expected error for empty input")
	}
	if !stderrors.Is(err, ErrNoEntries) {
		t.Errorf("Aggregate() error = %v, want ErrNoEntries", err)
	}
	if !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("Aggregate() code = %v, want %v", errors.GetCode(err), errors.ErrCodeEmptyInput)
	}
}

func TestAggregate_SummarizeErrorPropagates(t *testing.T) {
	boom := stderrors.New("boom")
	calls := 0

	c := ClassifierFuncs[string, string]{
		ClassifyFunc: func(s string) string { return s },
		SummarizeFunc: func(group []string) (Draft, error) {
			calls++
			return Draft{}, boom
		},
	}

	_, err := Aggregate([]string{"a", "b"}, c)
	if !stderrors.Is(err, boom) {
		t.Errorf("Aggregate() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("Summarize called %d times, want 1", calls)
	}
}

func TestAggregateSeq(t *testing.T) {
	seq := func(yield func(string) bool) {
		for _, s := range []string{"x", "y", "x", "x"} {
			if !yield(s) {
				return
			}
		}
	}

	c := ClassifierFuncs[string, string]{
		ClassifyFunc: func(s string) string { return s },
		SummarizeFunc: func(group []string) (Draft, error) {
			return Draft{Source: group[0], Edge: "e", Target: "t"}, nil
		},
	}

	edges, err := AggregateSeq(seq, c)
	if err != nil {
		t.Fatalf("AggregateSeq() error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("AggregateSeq() returned %d edges, want 2", len(edges))
	}
	if got := *edges[1].Value; got != 1.0/3.0 {
		t.Errorf("y value = %v, want %v", got, 1.0/3.0)
	}
}

func TestSortByWeight(t *testing.T) {
	edges := []Edge{
		{Source: "a", Target: "t", Value: Weight(0.25)},
		{Source: "b", Target: "t"},
		{Source: "c", Target: "t", Value: Weight(1)},
		{Source: "d", Target: "t", Value: Weight(0.25)},
		{Source: "e", Target: "t", Value: Weight(0.5)},
	}

	SortByWeight(edges)

	var got []string
	for _, e := range edges {
		got = append(got, e.Source)
	}
	if want := []string{"c", "e", "a", "d", "b"}; !slices.Equal(got, want) {
		t.Errorf("SortByWeight() order = %v, want %v", got, want)
	}
}

func TestApplyFloor(t *testing.T) {
	edges := []Edge{
		{Source: "a", Target: "t", Value: Weight(0.00001)},
		{Source: "b", Target: "t", Value: Weight(0.5)},
		{Source: "c", Target: "t"},
	}

	got := ApplyFloor(edges, 0.0001)

	if *got[0].Value != 0.0001 {
		t.Errorf("floored value = %v, want 0.0001", *got[0].Value)
	}
	if *got[1].Value != 0.5 {
		t.Errorf("value above floor = %v, want 0.5", *got[1].Value)
	}
	if got[2].Weighted() {
		t.Error("unweighted edge should stay unweighted")
	}
	if *edges[0].Value != 0.00001 {
		t.Error("ApplyFloor() should not modify its input")
	}

	if same := ApplyFloor(edges, 0); &same[0] != &edges[0] {
		t.Error("ApplyFloor() with zero floor should return the input slice")
	}
}

func TestCounter(t *testing.T) {
	drafts := []Draft{
		{Source: "10.0.0.1", Target: "10.0.0.2"},
		{Source: "10.0.0.3", Target: "10.0.0.2"},
		{Source: "10.0.0.1", Target: "10.0.0.2", Metadata: "ignored"},
		{Source: "10.0.0.1", Target: "10.0.0.2"},
	}

	edges, err := Aggregate(drafts, Counter{Unit: "packets"})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	if edges[0].Metadata != "3 packets" || *edges[0].Value != 1.0 {
		t.Errorf("edges[0] = %+v, want 3 packets with value 1", edges[0])
	}
	if edges[1].Metadata != "1 packets" {
		t.Errorf("edges[1].Metadata = %q, want %q", edges[1].Metadata, "1 packets")
	}
	if got := FormatTSV(edges[1]); got != "10.0.0.3\t\t10.0.0.2\t0.3333\t1 packets" {
		t.Errorf("FormatTSV() = %q", got)
	}
}
