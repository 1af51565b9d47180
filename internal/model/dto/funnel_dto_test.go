package dto

import (
	"testing"

	"QuizFunnel/internal/funnel"
	"QuizFunnel/internal/model"
)

func TestNewFunnelSnapshot(t *testing.T) {
	snap := funnel.Snapshot{
		State:     funnel.StateActive,
		StepIndex: 7,
		StepCount: 8,
		Answers: model.AnswerSet{
			FirstName:  "John",
			Attachment: &model.Attachment{Filename: "bill.pdf", ContentType: "application/pdf", Size: 1536},
		},
	}

	got := NewFunnelSnapshot(snap, nil, "tok")
	if got.Progress != 100 || got.State != "active" || got.CSRFToken != "tok" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.Notifications == nil {
		t.Fatalf("notifications should render as an empty list")
	}
	if got.Answers.Attachment == nil || got.Answers.Attachment.Size != "1.5 KB" {
		t.Fatalf("unexpected attachment view %+v", got.Answers.Attachment)
	}

	snap.StepIndex = 0
	if p := NewFunnelSnapshot(snap, nil, "").Progress; p != 12 {
		t.Fatalf("progress at step 0 = %d", p)
	}
	snap.State = funnel.StateComplete
	if p := NewFunnelSnapshot(snap, nil, "").Progress; p != 100 {
		t.Fatalf("complete progress = %d", p)
	}
}
