package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func TestFilenames(t *testing.T) {
	assert.Equal(t, "nt_20240105_as2_nrt_n.bin", BinaryFilename(testDate, North))
	assert.Equal(t, "nt_20240105_as2_nrt_s.bin", BinaryFilename(testDate, South))
	assert.Equal(t, "NSIDC-0803_SEAICE_AMSR2_N_20240105_v2.0.nc", OutputFilename(testDate, North, DefaultVersion))
	assert.Equal(t, "NSIDC-0803_SEAICE_AMSR2_S_20240105_v3.1.nc", OutputFilename(testDate, South, "v3.1"))
	assert.Equal(t, "2024.01.05", DateDirectory(testDate))
}

func TestFilenames_UnknownHemispherePanics(t *testing.T) {
	assert.PanicsWithValue(t, `domain: no file code for hemisphere "east"`, func() {
		BinaryFilename(testDate, Hemisphere("east"))
	})
	assert.Panics(t, func() { OutputFilename(testDate, "", DefaultVersion) })
}

func TestNewJob_TruncatesToDay(t *testing.T) {
	job := NewJob(time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC), South)
	assert.Equal(t, testDate, job.Date)
	assert.Equal(t, "20240105-south", job.Key())
}

func TestJobsForRange(t *testing.T) {
	t.Run("inclusive range in hemisphere order", func(t *testing.T) {
		jobs, err := JobsForRange(testDate, testDate.AddDate(0, 0, 2), Hemispheres())
		require.NoError(t, err)
		require.Len(t, jobs, 6)

		assert.Equal(t, Job{Date: testDate, Hemisphere: North}, jobs[0])
		assert.Equal(t, Job{Date: testDate, Hemisphere: South}, jobs[1])
		assert.Equal(t, Job{Date: testDate.AddDate(0, 0, 2), Hemisphere: South}, jobs[5])
	})

	t.Run("single day", func(t *testing.T) {
		jobs, err := JobsForRange(testDate, testDate, []Hemisphere{South})
		require.NoError(t, err)
		assert.Equal(t, []Job{{Date: testDate, Hemisphere: South}}, jobs)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := JobsForRange(testDate, testDate.AddDate(0, 0, -1), Hemispheres())
		assert.Error(t, err)
	})
}

func TestNewGranuleEvent(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC))
	SetClock(clk)
	t.Cleanup(func() { SetClock(nil) })

	event := NewGranuleEvent(NewJob(testDate, North), "/out/2024.01.05/x.nc", "v2.0")
	assert.Equal(t, GranuleEvent{
		Dataset:    "NSIDC-0803",
		Version:    "v2.0",
		Date:       "2024-01-05",
		Hemisphere: "north",
		Path:       "/out/2024.01.05/x.nc",
		CreatedAt:  clk.Now(),
	}, event)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("job: %w", ErrUnknownHemisphere), ReasonUnknownHemisphere},
		{fmt.Errorf("find: %w", ErrMissingInputFile), ReasonMissingInput},
		{&SchemaCompileError{Descriptor: "a.cdl", Diagnostic: "syntax error"}, ReasonSchemaCompile},
		{fmt.Errorf("inject: %w", ErrMissingVariable), ReasonMissingVariable},
		{&GridSizeMismatchError{Expected: 2, Actual: 1}, ReasonGridSize},
		{fmt.Errorf("run: %w", context.Canceled), ReasonCanceled},
		{fmt.Errorf("panic: %w", ErrInternal), ReasonInternal},
		{errors.New("disk full"), ReasonIO},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestSchemaCompileError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &SchemaCompileError{Descriptor: "/out/x.cdl", Diagnostic: "ncgen: syntax error line 3\n", Err: cause}

	assert.Equal(t, "schema compile /out/x.cdl: ncgen: syntax error line 3", err.Error())
	assert.ErrorIs(t, err, cause)

	noDiag := &SchemaCompileError{Descriptor: "/out/x.cdl", Err: cause}
	assert.Equal(t, "schema compile /out/x.cdl: exit status 1", noDiag.Error())
}
