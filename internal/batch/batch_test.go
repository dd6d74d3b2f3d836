package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/message"
	"github.com/danmuck/tcontctl/internal/testutil/testlog"
	"github.com/google/uuid"
)

func asciiRecord(data string) message.Record {
	return message.Record{
		Data:   data,
		Fields: []message.Descriptor{{Name: "F", Tag: "A", Length: 1}},
	}
}

func TestDirectionAlternates(t *testing.T) {
	testlog.Start(t)
	want := []Direction{Request, Response, Request, Response, Request}
	for i, w := range want {
		if got := DirectionFor(i); got != w {
			t.Fatalf("DirectionFor(%d) = %s want %s", i, got, w)
		}
	}
	if Request.String() != "Request" || Response.String() != "Response" {
		t.Fatalf("unexpected direction names")
	}
}

func TestRunLabelsRequestThenResponse(t *testing.T) {
	testlog.Start(t)
	report, err := NewDriver(Options{Workers: 2}).Run(context.Background(), []message.Record{
		asciiRecord("3132"),
		asciiRecord("3334"),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Fatalf("run id is not a uuid: %q", report.RunID)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	first, second := report.Results[0], report.Results[1]
	if first.Direction != Request || first.Message.Fields[0].Value.Text != "1" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if second.Direction != Response || second.Message.Fields[0].Value.Text != "3" {
		t.Fatalf("unexpected second result: %+v", second)
	}
}

func TestRunPreservesOrderUnderConcurrency(t *testing.T) {
	testlog.Start(t)
	records := make([]message.Record, 64)
	for i := range records {
		records[i] = message.Record{
			Data:   fmt.Sprintf("%02X", i),
			Fields: []message.Descriptor{{Name: "N", Tag: "N", Length: 1}},
		}
	}
	report, err := NewDriver(Options{Workers: 8}).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, res := range report.Results {
		if res.Index != i || res.Direction != DirectionFor(i) || res.Message.Fields[0].Value.Number != uint64(i) {
			t.Fatalf("result %d out of place: %+v", i, res)
		}
	}
}

func TestRunAbortsAtLowestFailingIndex(t *testing.T) {
	testlog.Start(t)
	records := []message.Record{
		asciiRecord("3132"),
		asciiRecord("3334"),
		asciiRecord(""),
		asciiRecord("3536"),
		{Data: "31", Fields: []message.Descriptor{{Name: "F", Tag: "X", Length: 1}}},
	}
	report, err := NewDriver(Options{Workers: 4}).Run(context.Background(), records)
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected RecordError, got %v", err)
	}
	if recErr.Index != 2 || recErr.Direction != Request {
		t.Fatalf("unexpected record error: %+v", recErr)
	}
	if protocol.KindOf(err) != protocol.KindInsufficientData {
		t.Fatalf("unexpected kind: %s", protocol.KindOf(err))
	}
	if len(report.Results) != 2 || report.Failed != 1 {
		t.Fatalf("expected 2 prior results and 1 failure, got %d/%d", len(report.Results), report.Failed)
	}
}

func TestRunContinueOnError(t *testing.T) {
	testlog.Start(t)
	records := []message.Record{
		asciiRecord("3132"),
		{Data: "3334", Fields: []message.Descriptor{{Name: "F", Tag: "A", Length: 0}}},
		asciiRecord("3536"),
	}
	report, err := NewDriver(Options{ContinueOnError: true}).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 3 || report.Failed != 1 {
		t.Fatalf("unexpected report: %d results, %d failed", len(report.Results), report.Failed)
	}
	mid := report.Results[1]
	if mid.Message != nil || protocol.KindOf(mid.Err) != protocol.KindInvalidLength || mid.Direction != Response {
		t.Fatalf("unexpected failed result: %+v", mid)
	}
	if report.Results[2].Message == nil {
		t.Fatalf("expected third record decoded")
	}
}

func TestRunStrictOption(t *testing.T) {
	testlog.Start(t)
	opts := Options{Message: message.Options{Strict: true}}
	_, err := NewDriver(opts).Run(context.Background(), []message.Record{asciiRecord("313233")})
	if protocol.KindOf(err) != protocol.KindTrailingData {
		t.Fatalf("expected TrailingData, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewDriver(DefaultOptions()).Run(ctx, []message.Record{asciiRecord("3132")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Results) != 0 {
		t.Fatalf("expected no results")
	}
}

func TestRunEmpty(t *testing.T) {
	testlog.Start(t)
	report, err := NewDriver(Options{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 0 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
