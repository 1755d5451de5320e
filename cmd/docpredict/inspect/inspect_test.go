package inspectcmder_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docpredictcmder "github.com/papercomputeco/docpredict/cmd/docpredict"
	"github.com/papercomputeco/docpredict/pkg/model"
)

var _ = Describe("inspect command execution", func() {
	var (
		dir    string
		stdout *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := docpredictcmder.NewDocpredictCmd()
		cmd.SetOut(stdout)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"inspect", "--config-dir", filepath.Join(dir, ".docpredict")}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stdout = &bytes.Buffer{}
		Expect(os.WriteFile(filepath.Join(dir, "model.tsv"), []byte("a\t1\t0\nb\t0\t1\n"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "docs.tsv"), []byte("left\ta\nright\tb\nnone\tzzz\n"), 0o600)).To(Succeed())
	})

	It("reports model statistics", func() {
		Expect(execute(filepath.Join(dir, "model.tsv"), "--raw")).To(Succeed())

		out := stdout.String()
		Expect(out).To(ContainSubstring("| features | 2 |"))
		Expect(out).To(ContainSubstring("| dimension | 2 |"))
		Expect(out).To(ContainSubstring("| similarity | cosine |"))
		Expect(out).NotTo(ContainSubstring("Base documents"))
	})

	It("reports base document statistics", func() {
		Expect(execute(filepath.Join(dir, "model.tsv"), "--basedoc", filepath.Join(dir, "docs.tsv"), "--raw")).To(Succeed())

		out := stdout.String()
		Expect(out).To(ContainSubstring("| candidates | 3 |"))
		Expect(out).To(ContainSubstring("| without known features | 1 |"))
		Expect(out).To(ContainSubstring("| 0 | left | 1.0000 |"))
		Expect(out).To(ContainSubstring("| 2 | none | 0.0000 |"))
	})

	It("renders markdown by default", func() {
		Expect(execute(filepath.Join(dir, "model.tsv"))).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("features"))
		Expect(stdout.String()).NotTo(ContainSubstring("|---|"))
	})

	It("fails on a missing model", func() {
		err := execute(filepath.Join(dir, "missing.tsv"))
		Expect(errors.Is(err, model.ErrLoad)).To(BeTrue())
	})

	It("requires exactly one argument", func() {
		Expect(execute()).To(HaveOccurred())
	})
})
