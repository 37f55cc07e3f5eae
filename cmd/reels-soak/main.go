// SPDX-License-Identifier: MIT

// reels-soak drives a mounted in-process playback session with random
// rapid input and checks the engine's safety invariants while doing so.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/playback/audio"
	"github.com/glintworks/reels/internal/playback/cache"
	"github.com/glintworks/reels/internal/playback/navigator"
	"github.com/glintworks/reels/internal/playback/session"
	"github.com/glintworks/reels/internal/playback/syncer"
	"github.com/glintworks/reels/internal/playback/testkit"
)

// Report is the JSON output schema for a soak run.
type Report struct {
	RunID           string    `json:"run_id"`
	Seed            int64     `json:"seed"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds float64   `json:"duration_s"`
	Inputs          int       `json:"inputs"`
	Transitions     int       `json:"transitions_committed"`
	Failures        []Failure `json:"failures"`
	Verdict         string    `json:"verdict"`
}

// Failure captures one observed invariant violation.
type Failure struct {
	Time    time.Time `json:"time"`
	Rule    string    `json:"rule"`
	Message string    `json:"message"`
}

type options struct {
	duration time.Duration
	items    int
	seed     int64
	out      string
}

func main() {
	var opts options
	flag.DurationVar(&opts.duration, "duration", 10*time.Second, "soak run duration")
	flag.IntVar(&opts.items, "items", 24, "synthetic feed length")
	flag.Int64Var(&opts.seed, "seed", 0, "rng seed (0 picks one)")
	flag.StringVar(&opts.out, "out", "", "report output path (default stdout)")
	flag.Parse()

	xglog.Configure(xglog.Config{Level: "warn", Service: "reels-soak"})

	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}

	report, err := run(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reels-soak: %v\n", err)
		os.Exit(2)
	}

	data, _ := json.MarshalIndent(report, "", "  ")
	if opts.out != "" {
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "reels-soak: write report: %v\n", err)
			os.Exit(2)
		}
	} else {
		fmt.Println(string(data))
	}

	if report.Verdict != "pass" {
		os.Exit(1)
	}
}

func run(opts options) (*Report, error) {
	rng := rand.New(rand.NewSource(opts.seed))

	items := make([]feed.Item, opts.items)
	for i := range items {
		items[i] = feed.Item{
			ID:        fmt.Sprintf("soak-%d", i),
			ProductID: fmt.Sprintf("%d", i+1),
			Products:  []feed.Product{{ID: fmt.Sprintf("%d", i+1), Name: "Soak", Price: 10}},
		}
		switch i % 3 {
		case 0:
			items[i].VideoURL = fmt.Sprintf("v%d.mp4", i)
			items[i].Music = &feed.MusicRef{URL: fmt.Sprintf("t%d.mp3", i)}
		case 1:
			items[i].VideoURL = fmt.Sprintf("v%d.mp4", i)
		default:
			items[i].GalleryImages = []string{
				fmt.Sprintf("g%d-1.jpg", i),
				fmt.Sprintf("g%d-2.jpg", i),
			}
		}
	}

	out := testkit.NewStubOutput()
	dec := testkit.NewScriptedDecoder()
	fac := testkit.NewFakeFactory()

	sess, err := session.Mount(items, session.Deps{
		Output:  out,
		Decoder: dec,
		Factory: fac,
		Link:    testkit.NewMemLink(""),
	}, session.Config{
		Audio: audio.Config{
			FadeIn:    30 * time.Millisecond,
			FadeOut:   30 * time.Millisecond,
			FadeSteps: 4,
		},
		Syncer: syncer.Config{
			SettleDelay:  5 * time.Millisecond,
			BufferPoll:   2 * time.Millisecond,
			SlideAdvance: 50 * time.Millisecond,
		},
		Navigator: navigator.Config{CoolDown: 20 * time.Millisecond},
		Cache:     cache.Config{BufferPoll: time.Millisecond, BufferPolls: 3},
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     fmt.Sprintf("soak-%d", time.Now().Unix()),
		Seed:      opts.seed,
		StartedAt: time.Now(),
	}

	deadline := time.Now().Add(opts.duration)
	lastIndex := sess.State().Index
	for time.Now().Before(deadline) {
		report.Inputs++
		switch rng.Intn(10) {
		case 0, 1, 2:
			sess.Wheel(120)
		case 3, 4:
			sess.Wheel(-120)
		case 5:
			sess.Key("ArrowDown")
		case 6:
			y := 100 + rng.Float64()*400
			sess.PointerDown(y)
			sess.PointerMove(y - 80)
			sess.PointerUp()
		case 7:
			sess.Tap()
		case 8:
			sess.ToggleMute()
		case 9:
			sess.SetVisible(rng.Intn(4) != 0)
		}

		if idx := sess.State().Index; idx != lastIndex {
			lastIndex = idx
			report.Transitions++
		}
		checkInvariants(report, out, sess, len(items))

		time.Sleep(time.Duration(rng.Intn(8)) * time.Millisecond)
	}

	sess.SetVisible(true)
	sess.Unmount()
	checkShutdown(report, out, dec)

	report.EndedAt = time.Now()
	report.DurationSeconds = report.EndedAt.Sub(report.StartedAt).Seconds()
	report.Verdict = "pass"
	if len(report.Failures) > 0 {
		report.Verdict = "fail"
	}
	return report, nil
}

func fail(r *Report, rule, format string, args ...any) {
	r.Failures = append(r.Failures, Failure{
		Time:    time.Now(),
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

// checkInvariants samples the safety properties after every input.
func checkInvariants(r *Report, out *testkit.StubOutput, sess *session.Session, length int) {
	if n := out.MaxAttached(); n > 1 {
		fail(r, "single-audible-track", "observed %d simultaneously attached audio graphs", n)
	}
	if n := out.AudibleCount(); n > 1 {
		fail(r, "single-audible-track", "observed %d audible tracks", n)
	}
	st := sess.State()
	if st.Index < 0 || st.Index >= length {
		fail(r, "index-in-range", "index %d outside feed of %d", st.Index, length)
	}
}

// checkShutdown verifies the unmount released every media resource.
func checkShutdown(r *Report, out *testkit.StubOutput, dec *testkit.ScriptedDecoder) {
	if n := out.Attached(); n != 0 {
		fail(r, "unmount-releases-audio", "%d audio graphs still attached after unmount", n)
	}
	if n := dec.OpenSources(); n != 0 {
		fail(r, "unmount-releases-decoders", "%d decoded sources still open after unmount", n)
	}
}
