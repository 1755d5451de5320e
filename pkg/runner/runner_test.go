package runner_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/encoder"
	"github.com/papercomputeco/docpredict/pkg/model"
	"github.com/papercomputeco/docpredict/pkg/results"
	"github.com/papercomputeco/docpredict/pkg/runner"
	"github.com/papercomputeco/docpredict/pkg/topk"
)

func fixture() (*encoder.Encoder, *candidates.Index) {
	store, err := model.NewStore(map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	})
	Expect(err).NotTo(HaveOccurred())
	enc := encoder.New(&model.Model{Args: model.DefaultArgs(), Store: store})

	idx, err := candidates.Load(strings.NewReader("c0\ta\nc1\tb\nc2\tc\n"), "docs", candidates.Options{Encoder: enc})
	Expect(err).NotTo(HaveOccurred())
	return enc, idx
}

func newRunner(workers uint, partition runner.Partition, k int) *runner.Runner {
	enc, idx := fixture()
	r, err := runner.New(&runner.Config{
		Encoder:    enc,
		Scorer:     topk.NewScorer(model.SimilarityCosine),
		Index:      idx,
		K:          k,
		NumWorkers: workers,
		Partition:  partition,
	})
	Expect(err).NotTo(HaveOccurred())
	return r
}

func chunk(w, workers, n int) []int {
	lo, hi := runner.ChunkBounds(w, workers, n)
	out := []int{}
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

func keys(acc *results.Accumulator) []string {
	out := slices.Collect(maps.Keys(acc.Results))
	slices.Sort(out)
	return out
}

var _ = Describe("Partition", func() {
	It("parses known strategies", func() {
		p, err := runner.ParsePartition("")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(runner.PartitionChunk))

		p, err = runner.ParsePartition("Round-Robin")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(runner.PartitionRoundRobin))

		_, err = runner.ParsePartition("random")
		Expect(err).To(HaveOccurred())
	})

	It("assigns contiguous chunks", func() {
		Expect(chunk(0, 3, 7)).To(Equal([]int{0, 1}))
		Expect(chunk(1, 3, 7)).To(Equal([]int{2, 3}))
		Expect(chunk(2, 3, 7)).To(Equal([]int{4, 5, 6}))
	})

	DescribeTable("covers every record exactly once",
		func(workers, n int) {
			all := []int{}
			for w := range workers {
				all = append(all, chunk(w, workers, n)...)
			}
			want := make([]int, n)
			for i := range want {
				want[i] = i
			}
			Expect(all).To(Equal(want))
		},
		Entry("more workers than records", 8, 3),
		Entry("uneven", 4, 10),
		Entry("even", 5, 10),
		Entry("empty", 2, 0),
	)
})

var _ = Describe("New", func() {
	It("rejects a missing index", func() {
		enc, _ := fixture()
		_, err := runner.New(&runner.Config{Encoder: enc, Scorer: topk.NewScorer("")})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a negative k", func() {
		enc, idx := fixture()
		_, err := runner.New(&runner.Config{Encoder: enc, Scorer: topk.NewScorer(""), Index: idx, K: -1})
		Expect(err).To(HaveOccurred())
	})

	It("defaults to a single worker", func() {
		r := newRunner(0, "", 1)
		accs, err := r.Run(context.Background(), []string{"q\ta"})
		Expect(err).NotTo(HaveOccurred())
		Expect(accs).To(HaveLen(1))
	})
})

var _ = Describe("Run", func() {
	It("predicts labels for every record", func() {
		r := newRunner(1, runner.PartitionChunk, 2)
		accs, err := r.Run(context.Background(), []string{"x\ta", "y\tb"})
		Expect(err).NotTo(HaveOccurred())

		acc := accs[0]
		Expect(acc.Processed).To(Equal(2))
		Expect(acc.Results["x"].Labels).To(Equal([]string{"c0", "c2"}))
		Expect(acc.Results["y"].Labels).To(Equal([]string{"c1", "c2"}))
		Expect(acc.Results["x"].Scores[0]).To(BeNumerically("~", 1, 1e-6))
	})

	It("skips malformed records and keeps going", func() {
		r := newRunner(2, runner.PartitionChunk, 1)
		records := []string{"x\ta", "no-text", "", "y\tb", "z\tc"}
		accs, err := r.Run(context.Background(), records)
		Expect(err).NotTo(HaveOccurred())

		m := results.Merge(accs, results.MergeLast)
		Expect(m.Processed).To(Equal(3))
		Expect(m.Skipped).To(Equal(2))
		Expect(m.Keys).To(Equal([]string{"x", "y", "z"}))
	})

	It("skips a quoted key that contains a tab", func() {
		r := newRunner(1, runner.PartitionChunk, 1)
		accs, err := r.Run(context.Background(), []string{"'k\t1'\ta", "y\tb"})
		Expect(err).NotTo(HaveOccurred())

		m := results.Merge(accs, results.MergeLast)
		Expect(m.Processed).To(Equal(1))
		Expect(m.Skipped).To(Equal(1))
		Expect(m.Keys).To(Equal([]string{"y"}))
	})

	It("gives each worker slot its own accumulator", func() {
		r := newRunner(4, runner.PartitionRoundRobin, 1)
		records := make([]string, 10)
		for i := range records {
			records[i] = fmt.Sprintf("k%d\ta", i)
		}
		accs, err := r.Run(context.Background(), records)
		Expect(err).NotTo(HaveOccurred())
		Expect(accs).To(HaveLen(4))
		for w, acc := range accs {
			Expect(acc.Worker).To(Equal(w))
		}
		Expect(accs[0].Processed).To(Equal(3))
		Expect(accs[3].Processed).To(Equal(2))
		Expect(keys(accs[1])).To(Equal([]string{"k1", "k5", "k9"}))
	})

	It("resolves a repeated key to its last occurrence with chunked partitions", func() {
		records := []string{"dup\ta", "x\tc", "dup\tb", "y\tc", "dup\tc"}
		for _, workers := range []uint{1, 2, 3, 5, 8} {
			r := newRunner(workers, runner.PartitionChunk, 1)
			accs, err := r.Run(context.Background(), records)
			Expect(err).NotTo(HaveOccurred())

			m := results.Merge(accs, results.MergeLast)
			Expect(m.Records["dup"].Labels).To(Equal([]string{"c2"}), "workers=%d", workers)
		}
	})

	It("lets the highest worker slot win with round-robin partitions", func() {
		// slot 0 gets "dup a", slot 1 gets "dup b".
		r := newRunner(2, runner.PartitionRoundRobin, 1)
		accs, err := r.Run(context.Background(), []string{"dup\ta", "dup\tb"})
		Expect(err).NotTo(HaveOccurred())

		m := results.Merge(accs, results.MergeLast)
		Expect(m.Records["dup"].Labels).To(Equal([]string{"c1"}))

		m = results.Merge(accs, results.MergeFirst)
		Expect(m.Records["dup"].Labels).To(Equal([]string{"c0"}))
	})

	It("returns the key with no labels when k is zero", func() {
		r := newRunner(1, runner.PartitionChunk, 0)
		accs, err := r.Run(context.Background(), []string{"x\ta"})
		Expect(err).NotTo(HaveOccurred())
		Expect(accs[0].Results).To(HaveKey("x"))
		Expect(accs[0].Results["x"].Labels).To(BeEmpty())
	})

	for _, p := range []runner.Partition{runner.PartitionChunk, runner.PartitionRoundRobin} {
		It("stops when the context is cancelled with "+string(p), func() {
			r := newRunner(2, p, 1)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := r.Run(ctx, []string{"x\ta", "y\tb"})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	}
})

// rangeSource records the ranges it is asked for and can fail on demand.
type rangeSource struct {
	runner.Lines

	mu     sync.Mutex
	ranges [][2]int
	err    error
}

func (s *rangeSource) Range(ctx context.Context, lo, hi int, fn func(int, string) error) error {
	s.mu.Lock()
	s.ranges = append(s.ranges, [2]int{lo, hi})
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return s.Lines.Range(ctx, lo, hi, fn)
}

var _ = Describe("RunSource", func() {
	It("reads one range per worker with chunked partitions", func() {
		src := &rangeSource{Lines: runner.Lines{"a\ta", "b\tb", "c\tc", "d\ta", "e\tb"}}
		r := newRunner(2, runner.PartitionChunk, 1)

		accs, err := r.RunSource(context.Background(), src)
		Expect(err).NotTo(HaveOccurred())
		Expect(src.ranges).To(ConsistOf([2]int{0, 2}, [2]int{2, 5}))
		Expect(keys(accs[0])).To(Equal([]string{"a", "b"}))
		Expect(keys(accs[1])).To(Equal([]string{"c", "d", "e"}))
	})

	It("reads the source once with round-robin partitions", func() {
		src := &rangeSource{Lines: runner.Lines{"a\ta", "b\tb", "c\tc"}}
		r := newRunner(3, runner.PartitionRoundRobin, 1)

		_, err := r.RunSource(context.Background(), src)
		Expect(err).NotTo(HaveOccurred())
		Expect(src.ranges).To(Equal([][2]int{{0, 3}}))
	})

	It("returns source failures", func() {
		boom := errors.New("disk gone")
		for _, p := range []runner.Partition{runner.PartitionChunk, runner.PartitionRoundRobin} {
			src := &rangeSource{Lines: runner.Lines{"a\ta", "b\tb"}, err: boom}
			_, err := newRunner(2, p, 1).RunSource(context.Background(), src)
			Expect(err).To(MatchError(boom), string(p))
		}
	})
})

var _ = Describe("RecordParseError", func() {
	It("matches ErrRecordParse", func() {
		var err error = &runner.RecordParseError{Line: 4, Fields: 1}
		Expect(errors.Is(err, runner.ErrRecordParse)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("line 4"))
	})

	It("names a key with a tab", func() {
		var err error = &runner.RecordParseError{Line: 2, Fields: 2, Key: "k\t1"}
		Expect(errors.Is(err, runner.ErrRecordParse)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("contains a tab"))
	})
})
