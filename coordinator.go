package main

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/cwsl/splatlink/splat"
)

// TransmitterSpec is the wire form of a transmitter. Decimal fields are
// strings so values survive JSON without binary-float drift.
type TransmitterSpec struct {
	Name          string `json:"name"`
	Latitude      string `json:"latitude"`
	LongitudeWtoE string `json:"longitude_wtoe"`
	HeightM       string `json:"height_m"`
	EirpW         string `json:"eirp_w"`
	FrequencyMHz  string `json:"frequency_mhz"`
	Polarization  int    `json:"polarization"`
	RadioClimate  int    `json:"radio_climate"`
}

// Build validates the spec into a domain transmitter
func (ts TransmitterSpec) Build() (splat.Transmitter, error) {
	return splat.NewTransmitter(ts.Name, ts.Latitude, ts.LongitudeWtoE, ts.HeightM,
		ts.EirpW, ts.FrequencyMHz, splat.Polarization(ts.Polarization), splat.RadioClimate(ts.RadioClimate))
}

// ReceiverSpec is the wire form of a receiver
type ReceiverSpec struct {
	Name          string `json:"name"`
	Latitude      string `json:"latitude"`
	LongitudeWtoE string `json:"longitude_wtoe"`
	HeightM       string `json:"height_m"`
}

// Build validates the spec into a domain receiver
func (rs ReceiverSpec) Build() (splat.Receiver, error) {
	return splat.NewReceiver(rs.Name, rs.Latitude, rs.LongitudeWtoE, rs.HeightM)
}

// LinkPair is one transmitter/receiver pair to analyze
type LinkPair struct {
	Transmitter TransmitterSpec `json:"transmitter"`
	Receiver    ReceiverSpec    `json:"receiver"`
}

// LinkOutcome is the result of analyzing one pair
type LinkOutcome struct {
	Transmitter         string `json:"transmitter"`
	Receiver            string `json:"receiver"`
	FreeSpacePathLossDB string `json:"free_space_path_loss_db,omitempty"`
	ITWOMPathLossDB     string `json:"itwom_path_loss_db,omitempty"`
	FieldStrengthDBuVm  string `json:"field_strength_dbuv_m,omitempty"`
	Error               string `json:"error,omitempty"`
	DurationMS          int64  `json:"duration_ms"`
}

// ValueStats summarizes one quantity across a job's successful pairs
type ValueStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// JobSummary aggregates a finished batch job
type JobSummary struct {
	Pairs              int        `json:"pairs"`
	Succeeded          int        `json:"succeeded"`
	Failed             int        `json:"failed"`
	ITWOMPathLossDB    ValueStats `json:"itwom_path_loss_db"`
	FieldStrengthDBuVm ValueStats `json:"field_strength_dbuv_m"`
}

// Job statuses
const (
	JobRunning = "running"
	JobDone    = "done"
)

// Job is one batch link-budget computation
type Job struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Submitted time.Time     `json:"submitted"`
	Completed *time.Time    `json:"completed,omitempty"`
	Pairs     int           `json:"pairs"`
	Outcomes  []LinkOutcome `json:"outcomes"`
	Summary   *JobSummary   `json:"summary,omitempty"`
}

// Coordinator fans batch jobs out over a fixed pool of concurrent SPLAT
// runs. Each run owns its own workspace, so pairs of one job (and pairs
// of different jobs) execute independently.
type Coordinator struct {
	runner    *splat.Runner
	workers   int
	publisher *MQTTPublisher

	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[string][]chan LinkOutcome
}

// NewCoordinator creates a new coordinator
func NewCoordinator(runner *splat.Runner, workers int, publisher *MQTTPublisher) *Coordinator {
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{
		runner:      runner,
		workers:     workers,
		publisher:   publisher,
		jobs:        make(map[string]*Job),
		subscribers: make(map[string][]chan LinkOutcome),
	}
}

// RunPair analyzes a single pair synchronously and classifies the
// outcome for metrics
func (c *Coordinator) RunPair(ctx context.Context, pair LinkPair) LinkOutcome {
	outcome := LinkOutcome{
		Transmitter: pair.Transmitter.Name,
		Receiver:    pair.Receiver.Name,
	}

	start := time.Now()
	defer func() {
		outcome.DurationMS = time.Since(start).Milliseconds()
	}()

	tx, err := pair.Transmitter.Build()
	if err != nil {
		outcome.Error = err.Error()
		recordRun("invalid", time.Since(start))
		return outcome
	}
	rx, err := pair.Receiver.Build()
	if err != nil {
		outcome.Error = err.Error()
		recordRun("invalid", time.Since(start))
		return outcome
	}

	report, err := c.runner.ReportValues(ctx, tx, rx)
	if err != nil {
		outcome.Error = err.Error()
		recordRun(classifyRunError(err), time.Since(start))
		return outcome
	}

	outcome.FreeSpacePathLossDB = report.FreeSpacePathLossDB.String()
	outcome.ITWOMPathLossDB = report.ITWOMPathLossDB.String()
	outcome.FieldStrengthDBuVm = report.FieldStrengthDBuVm.String()
	recordRun("ok", time.Since(start))
	return outcome
}

func classifyRunError(err error) string {
	var terr *splat.TimeoutError
	var eerr *splat.ExecError
	var rerr *splat.ReportError
	var verr *splat.ValidationError
	switch {
	case errors.As(err, &terr):
		return "timeout"
	case errors.As(err, &eerr):
		return "exec_error"
	case errors.As(err, &rerr):
		return "parse_error"
	case errors.As(err, &verr):
		return "invalid"
	default:
		return "error"
	}
}

// Submit starts a batch job and returns it immediately
func (c *Coordinator) Submit(pairs []LinkPair) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobRunning,
		Submitted: time.Now().UTC(),
		Pairs:     len(pairs),
		Outcomes:  make([]LinkOutcome, 0, len(pairs)),
	}

	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()

	metricJobsActive.Inc()
	log.Printf("Coordinator: Job %s submitted (%d pairs, %d workers)", job.ID, len(pairs), c.workers)

	go c.runJob(job.ID, pairs)

	return job
}

// runJob fans the pairs out over the worker pool and finalizes the job
func (c *Coordinator) runJob(jobID string, pairs []LinkPair) {
	work := make(chan LinkPair)
	var wg sync.WaitGroup

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range work {
				outcome := c.RunPair(context.Background(), pair)
				c.deliverOutcome(jobID, outcome)
			}
		}()
	}

	for _, pair := range pairs {
		work <- pair
	}
	close(work)
	wg.Wait()

	c.finishJob(jobID)
}

// deliverOutcome appends a completed pair to its job and notifies
// subscribers and MQTT
func (c *Coordinator) deliverOutcome(jobID string, outcome LinkOutcome) {
	metricJobPairsTotal.Inc()

	if c.publisher != nil && outcome.Error == "" {
		if err := c.publisher.PublishLinkResult(outcome, jobID); err != nil {
			log.Printf("MQTT publish error: %v", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[jobID]
	if !ok {
		return
	}
	job.Outcomes = append(job.Outcomes, outcome)

	// Subscriber channels are sized to the job's pair count, so these
	// sends never block.
	for _, ch := range c.subscribers[jobID] {
		ch <- outcome
	}
}

// finishJob computes the summary and releases subscribers
func (c *Coordinator) finishJob(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[jobID]
	if !ok {
		return
	}

	now := time.Now().UTC()
	job.Status = JobDone
	job.Completed = &now
	job.Summary = summarize(job.Outcomes)

	for _, ch := range c.subscribers[jobID] {
		close(ch)
	}
	delete(c.subscribers, jobID)

	metricJobsActive.Dec()
	log.Printf("Coordinator: Job %s done (%d/%d pairs succeeded)",
		jobID, job.Summary.Succeeded, job.Summary.Pairs)
}

// summarize aggregates the successful outcomes of a job
func summarize(outcomes []LinkOutcome) *JobSummary {
	summary := &JobSummary{Pairs: len(outcomes)}

	var itwom, field []float64
	for _, o := range outcomes {
		if o.Error != "" {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		if v, err := strconv.ParseFloat(o.ITWOMPathLossDB, 64); err == nil {
			itwom = append(itwom, v)
		}
		if v, err := strconv.ParseFloat(o.FieldStrengthDBuVm, 64); err == nil {
			field = append(field, v)
		}
	}

	summary.ITWOMPathLossDB = valueStats(itwom)
	summary.FieldStrengthDBuVm = valueStats(field)
	return summary
}

// valueStats computes summary statistics over one quantity
func valueStats(values []float64) ValueStats {
	if len(values) == 0 {
		return ValueStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return ValueStats{
		Mean:   stat.Mean(sorted, nil),
		StdDev: stat.StdDev(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// Job returns a snapshot of a job
func (c *Coordinator) Job(id string) (Job, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	job, ok := c.jobs[id]
	if !ok {
		return Job{}, false
	}

	snapshot := *job
	snapshot.Outcomes = append([]LinkOutcome(nil), job.Outcomes...)
	return snapshot, true
}

// Subscribe returns a channel delivering the job's outcomes, including
// any already completed. The channel closes when the job finishes.
func (c *Coordinator) Subscribe(id string) (<-chan LinkOutcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[id]
	if !ok {
		return nil, false
	}

	ch := make(chan LinkOutcome, job.Pairs)
	for _, outcome := range job.Outcomes {
		ch <- outcome
	}

	if job.Status == JobDone {
		close(ch)
	} else {
		c.subscribers[id] = append(c.subscribers[id], ch)
	}

	return ch, true
}

// ActiveJobs returns the number of running jobs
func (c *Coordinator) ActiveJobs() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	for _, job := range c.jobs {
		if job.Status == JobRunning {
			active++
		}
	}
	return active
}
