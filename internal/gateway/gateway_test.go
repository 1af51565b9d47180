package gateway

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"QuizFunnel/internal/model"
	"QuizFunnel/pkg/errors"
)

type fakeStore struct {
	probeErr  error
	createErr error
	records   []Record
	probes    int
	creates   int
	fields    map[string]any
}

func (s *fakeStore) Probe(ctx context.Context) error {
	s.probes++
	return s.probeErr
}

func (s *fakeStore) Create(ctx context.Context, fields map[string]any) ([]Record, error) {
	s.creates++
	s.fields = fields
	return s.records, s.createErr
}

type fakeBlobs struct {
	url      string
	err      error
	uploads  int
	filename string
	body     []byte
}

func (b *fakeBlobs) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	b.uploads++
	b.filename = filename
	data, _ := io.ReadAll(body)
	b.body = data
	return b.url, b.err
}

// upstream 模拟记录存储返回的结构化错误
type upstream struct {
	typ    string
	status int
	msg    string
}

func (u upstream) Error() string        { return fmt.Sprintf("%d %s %s", u.status, u.typ, u.msg) }
func (u upstream) ErrorType() string    { return u.typ }
func (u upstream) HTTPStatus() int      { return u.status }
func (u upstream) ErrorMessage() string { return u.msg }

func completeAnswers() model.AnswerSet {
	return model.AnswerSet{
		FirstName:       " John ",
		LastName:        "Doe",
		Email:           " john@example.com ",
		Phone:           "+61 412 345 678",
		Address:         "1 George St, Sydney NSW 2000, Australia ",
		HomeOwnership:   model.HomeOwnershipOwn,
		ElectricityBill: "400",
	}
}

func newTestGateway(store *fakeStore, blobs *fakeBlobs) *Gateway {
	return New(store, blobs, Config{}, WithIDGenerator(func() (int64, error) { return 7, nil }))
}

func TestSubmitWithoutAttachment(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: "rec1"}}}
	blobs := &fakeBlobs{}
	g := newTestGateway(store, blobs)

	receipt, err := g.Submit(context.Background(), completeAnswers())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if diff := cmp.Diff(model.Receipt{RecordID: "rec1", SubmissionID: 7}, receipt); diff != "" {
		t.Fatalf("receipt mismatch (-want +got):\n%s", diff)
	}
	if store.probes != 1 || store.creates != 1 || blobs.uploads != 0 {
		t.Fatalf("calls probe=%d create=%d upload=%d", store.probes, store.creates, blobs.uploads)
	}

	want := map[string]any{
		"Name":           "John Doe",
		"Email":          "john@example.com",
		"Phone":          "+61 412 345 678",
		"Address":        "1 George St, Sydney NSW 2000, Australia",
		"Home Ownership": "Yes",
		"Monthly Bill":   "$400",
	}
	if diff := cmp.Diff(want, store.fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitWithAttachment(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: "rec2"}}}
	blobs := &fakeBlobs{url: "https://tmpfiles.org/dl/123/bill.pdf"}
	g := newTestGateway(store, blobs)

	answers := completeAnswers()
	answers.HomeOwnership = model.HomeOwnershipRent
	answers.ElectricityBill = ""
	answers.Attachment = &model.Attachment{Filename: "bill.pdf", ContentType: "application/pdf", Size: 3, Data: []byte("pdf")}

	if _, err := g.Submit(context.Background(), answers); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if blobs.uploads != 1 || blobs.filename != "bill.pdf" || string(blobs.body) != "pdf" {
		t.Fatalf("unexpected upload %d %q %q", blobs.uploads, blobs.filename, blobs.body)
	}
	if got := store.fields["Home Ownership"]; got != "No" {
		t.Fatalf("Home Ownership = %v", got)
	}
	if _, ok := store.fields["Monthly Bill"]; ok {
		t.Fatalf("empty bill should be omitted")
	}
	wantPDF := []Attachment{{URL: "https://tmpfiles.org/dl/123/bill.pdf", Filename: "bill.pdf"}}
	if diff := cmp.Diff(wantPDF, store.fields["PDF"]); diff != "" {
		t.Fatalf("PDF mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitValidationSkipsNetwork(t *testing.T) {
	for _, mutate := range []func(*model.AnswerSet){
		func(a *model.AnswerSet) { a.FirstName, a.LastName = "", "  " },
		func(a *model.AnswerSet) { a.Email = "" },
		func(a *model.AnswerSet) { a.Phone = " " },
		func(a *model.AnswerSet) { a.Address = "" },
	} {
		store := &fakeStore{records: []Record{{ID: "x"}}}
		blobs := &fakeBlobs{}
		answers := completeAnswers()
		mutate(&answers)

		_, err := newTestGateway(store, blobs).Submit(context.Background(), answers)
		if !stderrors.Is(err, errors.ValidationError) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if store.probes+store.creates+blobs.uploads != 0 {
			t.Fatalf("validation failure must not touch the network")
		}
	}
}

func TestSubmitProbeFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{"upstream message", upstream{status: 401, msg: "Invalid authentication token"}, "Invalid authentication token"},
		{"empty upstream", upstream{}, errors.ConnectivityError.Message},
		{"status only", upstream{status: 500}, "Connection verification failed"},
		{"transport", stderrors.New("dial tcp: connection refused"), errors.ConnectivityError.Message},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{probeErr: tc.err}
			blobs := &fakeBlobs{}
			_, err := newTestGateway(store, blobs).Submit(context.Background(), completeAnswers())
			if !stderrors.Is(err, errors.ConnectivityError) {
				t.Fatalf("expected ConnectivityError, got %v", err)
			}
			if err.Error() != tc.msg {
				t.Fatalf("message = %q, want %q", err.Error(), tc.msg)
			}
			if store.creates != 0 || blobs.uploads != 0 {
				t.Fatalf("probe failure must short-circuit")
			}
		})
	}
}

func TestSubmitUploadFailure(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: "x"}}}
	blobs := &fakeBlobs{err: stderrors.New("status 500")}
	answers := completeAnswers()
	answers.Attachment = &model.Attachment{Filename: "bill.png", ContentType: "image/png", Size: 1, Data: []byte{1}}

	_, err := newTestGateway(store, blobs).Submit(context.Background(), answers)
	if !stderrors.Is(err, errors.AttachmentError) {
		t.Fatalf("expected AttachmentError, got %v", err)
	}
	if err.Error() != "Failed to process file. Please try again." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if store.creates != 0 {
		t.Fatalf("create must not run after a failed upload")
	}
}

func TestSubmitEmptyCreateResponse(t *testing.T) {
	store := &fakeStore{records: []Record{}}
	_, err := newTestGateway(store, &fakeBlobs{}).Submit(context.Background(), completeAnswers())
	if !stderrors.Is(err, errors.CreateFailedError) {
		t.Fatalf("expected CreateFailedError, got %v", err)
	}
	if err.Error() != "Failed to create contact record" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSubmitCreateErrorPrecedence(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want errors.Definition
		msg  string
	}{
		{
			name: "attachment code wins over message",
			err:  upstream{typ: "INVALID_ATTACHMENT_OBJECT", status: 422, msg: "bad attachment"},
			want: errors.AttachmentError,
			msg:  InvalidAttachmentMessage,
		},
		{
			name: "message wins over status",
			err:  upstream{typ: "INVALID_VALUE_FOR_COLUMN", status: 422, msg: "Field \"Phone\" cannot accept the provided value"},
			want: errors.CreateFailedError,
			msg:  "Field \"Phone\" cannot accept the provided value",
		},
		{"403", upstream{status: 403}, errors.CreateFailedError, "Permission denied. Please verify your Airtable API key and access rights."},
		{"404", upstream{status: 404}, errors.CreateFailedError, "Table or base not found. Please verify your Airtable configuration."},
		{"413", upstream{status: 413}, errors.CreateFailedError, "The PDF file is too large. Please try a smaller file."},
		{"422", upstream{status: 422}, errors.CreateFailedError, "Invalid data format. Please check your input."},
		{"other status", upstream{status: 503}, errors.CreateFailedError, "Failed to add contact. Please try again."},
		{"empty object", upstream{}, errors.UnknownError, errors.UnknownError.Message},
		{"wrapped", fmt.Errorf("create: %w", upstream{status: 404}), errors.CreateFailedError, "Table or base not found. Please verify your Airtable configuration."},
		{"transport", stderrors.New("EOF"), errors.CreateFailedError, "Failed to add contact. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{createErr: tc.err}
			_, err := newTestGateway(store, &fakeBlobs{}).Submit(context.Background(), completeAnswers())
			if !stderrors.Is(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want.Code, err)
			}
			if err.Error() != tc.msg {
				t.Fatalf("message = %q, want %q", err.Error(), tc.msg)
			}
		})
	}
}

func TestAttachmentErrorTableFromConfig(t *testing.T) {
	store := &fakeStore{createErr: upstream{typ: "ATTACHMENTS_FAILED_UPLOADING", status: 422}}
	cfg := Config{AttachmentErrors: AttachmentErrorTable([]string{"INVALID_ATTACHMENT_OBJECT", " ATTACHMENTS_FAILED_UPLOADING ", ""})}
	g := New(store, &fakeBlobs{}, cfg, WithIDGenerator(func() (int64, error) { return 1, nil }))

	_, err := g.Submit(context.Background(), completeAnswers())
	if !stderrors.Is(err, errors.AttachmentError) {
		t.Fatalf("expected AttachmentError, got %v", err)
	}
	if len(cfg.AttachmentErrors) != 2 {
		t.Fatalf("blank codes should be skipped, got %v", cfg.AttachmentErrors)
	}
}

func TestSubmitIDGeneratorFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{records: []Record{{ID: "rec9"}}}
	g := New(store, &fakeBlobs{}, Config{}, WithIDGenerator(func() (int64, error) { return 0, stderrors.New("not initialized") }))
	receipt, err := g.Submit(context.Background(), completeAnswers())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if receipt.RecordID != "rec9" || receipt.SubmissionID != 0 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}
