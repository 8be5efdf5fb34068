package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobName(t *testing.T) {
	cases := []struct {
		Name     string
		Scenario Scenario
		Expect   string
	}{
		{
			Name:     "WithMachine",
			Scenario: Scenario{Distri: "sle", Version: "15", Flavor: "dvd", Arch: "x86_64", Test: "install", Machine: "64bit"},
			Expect:   "sle-15-dvd-x86_64-install@64bit",
		},
		{
			Name:     "NoMachine",
			Scenario: Scenario{Distri: "sle", Version: "15", Flavor: "dvd", Arch: "x86_64", Test: "install"},
			Expect:   "sle-15-dvd-x86_64-install",
		},
		{
			Name:     "UnsafeCharsReplaced",
			Scenario: Scenario{Distri: "open suse", Version: "15.4", Flavor: "dvd", Arch: "x86_64", Test: "a/b#c"},
			Expect:   "open_suse-15.4-dvd-x86_64-a_b_c",
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			j := &Job{JobSpec: JobSpec{Scenario: c.Scenario}}

			assert.Equal(t, c.Expect, j.Name())
		})
	}
}

func TestRenderedSettings(t *testing.T) {
	j := &Job{
		ID: 42,
		JobSpec: JobSpec{
			Scenario: Scenario{Distri: "sle", Version: "15", Flavor: "dvd", Arch: "x86_64", Test: "install", Machine: "64bit"},
			Settings: map[string]string{"ISO": "sle-15.iso"},
		},
	}

	out := j.RenderedSettings()

	assert.Equal(t, "sle-15.iso", out["ISO"])
	assert.Equal(t, "sle", out["DISTRI"])
	assert.Equal(t, "15", out["VERSION"])
	assert.Equal(t, "dvd", out["FLAVOR"])
	assert.Equal(t, "x86_64", out["ARCH"])
	assert.Equal(t, "install", out["TEST"])
	assert.Equal(t, "64bit", out["MACHINE"])
	assert.Equal(t, "00000042-sle-15-dvd-x86_64-install@64bit", out[KeyName])

	// the job's own settings are left untouched
	_, ok := j.Settings[KeyName]
	assert.False(t, ok)
}

func TestMergeSettings(t *testing.T) {
	cases := []struct {
		Name   string
		Dst    map[string]string
		Src    map[string]string
		Expect map[string]string
	}{
		{
			Name:   "NilDst",
			Dst:    nil,
			Src:    map[string]string{"A": "1"},
			Expect: map[string]string{"A": "1"},
		},
		{
			Name:   "Overwrite",
			Dst:    map[string]string{"A": "1"},
			Src:    map[string]string{"A": "2"},
			Expect: map[string]string{"A": "2"},
		},
		{
			Name:   "WorkerClassConcatenates",
			Dst:    map[string]string{KeyWorkerClass: "qemu_x86_64"},
			Src:    map[string]string{KeyWorkerClass: "tap"},
			Expect: map[string]string{KeyWorkerClass: "qemu_x86_64,tap"},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, MergeSettings(c.Dst, c.Src))
		})
	}
}
