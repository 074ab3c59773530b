package domain

import (
	"fmt"
	"strings"
	"time"
)

// Dataset identifiers used in file names and granule events.
const (
	DatasetID       = "NSIDC-0803"
	DefaultVersion  = "v2.0"
	DefaultRepoURL  = "https://github.com/nsidc/nsidc0803"
	binaryDateStamp = "20060102"
	dirDateStamp    = "2006.01.02"
)

// Job is one unit of work: a single day for a single hemisphere.
type Job struct {
	Date       time.Time
	Hemisphere Hemisphere
}

// NewJob truncates date to its UTC calendar day.
func NewJob(date time.Time, h Hemisphere) Job {
	return Job{Date: calendarDay(date), Hemisphere: h}
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Key uniquely identifies the job, e.g. "20240105-north".
func (j Job) Key() string { return j.Date.Format(binaryDateStamp) + "-" + string(j.Hemisphere) }

// JobsForRange expands an inclusive date range into jobs, ordered by date
// and then by the given hemisphere order.
func JobsForRange(start, end time.Time, hemispheres []Hemisphere) ([]Job, error) {
	first := calendarDay(start)
	last := calendarDay(end)
	if last.Before(first) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			last.Format(time.DateOnly), first.Format(time.DateOnly))
	}
	var jobs []Job
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		for _, h := range hemispheres {
			jobs = append(jobs, Job{Date: d, Hemisphere: h})
		}
	}
	return jobs, nil
}

// BinaryFilename returns the raw input name, e.g. "nt_20240105_as2_nrt_n.bin".
func BinaryFilename(date time.Time, h Hemisphere) string {
	return fmt.Sprintf("nt_%s_as2_nrt_%s.bin", date.Format(binaryDateStamp), h.Code())
}

// OutputFilename returns the granule name, e.g.
// "NSIDC-0803_SEAICE_AMSR2_N_20240105_v2.0.nc".
func OutputFilename(date time.Time, h Hemisphere, version string) string {
	return fmt.Sprintf("%s_SEAICE_AMSR2_%s_%s_%s.nc",
		DatasetID, strings.ToUpper(h.Code()), date.Format(binaryDateStamp), version)
}

// DateDirectory returns the per-day output subdirectory, e.g. "2024.01.05".
func DateDirectory(date time.Time) string { return date.Format(dirDateStamp) }

// GranuleEvent announces a finished output file.
type GranuleEvent struct {
	Dataset    string    `json:"dataset"`
	Version    string    `json:"version"`
	Date       string    `json:"date"`
	Hemisphere string    `json:"hemisphere"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewGranuleEvent describes the output written for job.
func NewGranuleEvent(job Job, path, version string) GranuleEvent {
	return GranuleEvent{
		Dataset:    DatasetID,
		Version:    version,
		Date:       job.Date.Format(time.DateOnly),
		Hemisphere: string(job.Hemisphere),
		Path:       path,
		CreatedAt:  now(),
	}
}
