package reporter

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/smokerun/internal/example"
)

// JUnit XML as consumed by CI result collectors. Only the subset those
// collectors read is emitted.

type junitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Skipped   *junitMessage `xml:"skipped,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// WriteJUnitReport writes the run as one JUnit test suite. Each example is
// a test case; timeouts count as failures, skips as skipped.
func WriteJUnitReport(report *example.RunReport, path string) error {
	suite := junitTestSuite{
		Name:      "smokerun",
		Tests:     report.Total,
		Failures:  report.Failed + report.TimedOut,
		Skipped:   report.Skipped,
		Time:      junitSeconds(report.TotalDuration),
		Timestamp: report.Timestamp.Format(time.RFC3339),
	}

	for _, o := range report.Outcomes {
		classname := "serial"
		if o.Distributed {
			classname = "distributed"
		}
		tc := junitTestCase{
			Name:      o.Name,
			Classname: classname,
			Time:      junitSeconds(o.Duration),
		}
		switch o.State {
		case example.StatePassed:
		case example.StateSkipped:
			tc.Skipped = &junitMessage{Message: o.Error}
		default:
			tc.Failure = &junitMessage{
				Message: o.Error,
				Text:    o.LastOutput,
			}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal junit: %w", err)
	}

	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write junit: %w", err)
	}

	return nil
}

func junitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
