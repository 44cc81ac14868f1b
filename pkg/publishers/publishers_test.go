package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/iso-news-harvester/internal/domain"
)

func sampleEvent() Event {
	return NewReportEvent("/tmp/iso_news_articulos_20240510_143005.json", domain.ReportMetadata{
		GeneratedAt:       time.Date(2024, 5, 10, 14, 30, 5, 0, time.UTC),
		DataSource:        "Multiple Sources",
		TotalArticles:     3,
		SuccessfulScrapes: 2,
		FailedScrapes:     1,
	}, []string{"isotools", "aenor"})
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cret")
	path := writeConfig(t, "publishers.yaml", `
publishers:
  - id: hook
    type: HTTP
    http:
      url: https://hooks.test/iso
      headers:
        Authorization: Bearer ${HOOK_TOKEN}
  - id: queue
    type: queue
    enabled: false
    queue:
      provider: AWS-SQS
      sqs:
        target: https://sqs.us-east-1.amazonaws.com/123/iso
        region: us-east-1
`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	hook, ok := reg.ByID("hook")
	require.True(t, ok)
	assert.Equal(t, TypeHTTP, hook.Type)
	assert.Equal(t, "POST", hook.HTTP.Method)
	assert.Equal(t, httpDefaultTimeoutSeconds, hook.HTTP.TimeoutSeconds)
	assert.Equal(t, "Bearer s3cret", hook.HTTP.Headers["Authorization"])

	q, ok := reg.ByID("queue")
	require.True(t, ok)
	assert.Equal(t, QueueProviderAWSSQS, q.Queue.Provider)

	enabled := reg.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "hook", enabled[0].ID)
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := map[string]string{
		"no entries":    `{"publishers": []}`,
		"no id":         `{"publishers": [{"type": "http", "http": {"url": "https://a.test"}}]}`,
		"unknown type":  `{"publishers": [{"id": "x", "type": "smtp"}]}`,
		"http no url":   `{"publishers": [{"id": "x", "type": "http", "http": {}}]}`,
		"http bad url":  `{"publishers": [{"id": "x", "type": "http", "http": {"url": "ftp://a.test"}}]}`,
		"azure":         `{"publishers": [{"id": "x", "type": "queue", "queue": {"provider": "azure"}}]}`,
		"sqs no region": `{"publishers": [{"id": "x", "type": "queue", "queue": {"provider": "aws-sqs", "sqs": {"target": "u"}}}]}`,
		"half keys":     `{"publishers": [{"id": "x", "type": "queue", "queue": {"provider": "aws-sns", "sns": {"target": "arn", "region": "r", "access_key_id": "k"}}}]}`,
		"gcp no topic":  `{"publishers": [{"id": "x", "type": "queue", "queue": {"provider": "gcp", "gcp": {"project_id": "p"}}}]}`,
		"duplicate":     `{"publishers": [{"id": "x", "type": "http", "http": {"url": "https://a.test"}}, {"id": "x", "type": "http", "http": {"url": "https://b.test"}}]}`,
	}
	for name, body := range cases {
		_, err := LoadRegistry(writeConfig(t, "publishers.json", body))
		assert.Error(t, err, name)
	}

	_, err := LoadRegistry("")
	assert.Error(t, err)
}

func TestHTTPPublisherPostsEvent(t *testing.T) {
	var (
		gotMethod string
		gotAuth   string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := sanitizePublisherConfig(PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer t"}},
	})
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{cfg}, nil)
	require.NoError(t, err)
	require.Len(t, pubs, 1)

	require.NoError(t, pubs[0].Publish(context.Background(), sampleEvent()))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer t", gotAuth)
	assert.Equal(t, EventReportGenerated, gotBody["event_type"])
	assert.EqualValues(t, 2, gotBody["successful_scrapes"])
	assert.Equal(t, []any{"isotools", "aenor"}, gotBody["sources"])
}

func TestHTTPPublisherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), sanitizePublisherConfig(PublisherConfig{
		ID: "hook", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: srv.URL},
	}), nil)
	require.NoError(t, err)

	err = pub.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	return &sns.PublishOutput{MessageId: aws.String("m-2")}, nil
}

func TestSQSSenderSetsEventTypeAttribute(t *testing.T) {
	client := &fakeSQS{}
	pub := &queuePublisher{
		id:       "q",
		typ:      TypeQueue,
		provider: QueueProviderAWSSQS,
		sender:   &awsSQSSender{queueURL: "https://sqs.test/q", client: client, log: ensureLogger(nil)},
	}

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	require.NotNil(t, client.input)
	assert.Equal(t, "https://sqs.test/q", aws.ToString(client.input.QueueUrl))
	assert.Equal(t, EventReportGenerated, aws.ToString(client.input.MessageAttributes["event_type"].StringValue))

	var body Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.input.MessageBody)), &body))
	assert.Equal(t, sampleEvent(), body)
}

func TestSQSSenderWrapsErrors(t *testing.T) {
	pub := &queuePublisher{
		id:       "q",
		provider: QueueProviderAWSSQS,
		sender:   &awsSQSSender{client: &fakeSQS{err: errors.New("throttled")}, log: ensureLogger(nil)},
	}

	err := pub.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aws-sqs")
	assert.Contains(t, err.Error(), "throttled")
}

func TestSNSSenderPublishesToTopic(t *testing.T) {
	client := &fakeSNS{}
	sender := &awsSNSSender{topicARN: "arn:aws:sns:us-east-1:123:iso", client: client, log: ensureLogger(nil)}

	require.NoError(t, sender.Send(context.Background(), sampleEvent()))
	assert.Equal(t, "arn:aws:sns:us-east-1:123:iso", aws.ToString(client.input.TopicArn))
	assert.Equal(t, EventReportGenerated, aws.ToString(client.input.Subject))
	assert.Equal(t, EventReportGenerated, aws.ToString(client.input.MessageAttributes["event_type"].StringValue))
}

type recordingPublisher struct {
	id     string
	err    error
	events []Event
}

func (p *recordingPublisher) ID() string   { return p.id }
func (p *recordingPublisher) Type() string { return "test" }
func (p *recordingPublisher) Publish(_ context.Context, evt Event) error {
	p.events = append(p.events, evt)
	return p.err
}

func TestPublishAllContinuesAfterFailure(t *testing.T) {
	bad := &recordingPublisher{id: "bad", err: errors.New("down")}
	good := &recordingPublisher{id: "good"}

	err := PublishAll(context.Background(), []Publisher{bad, nil, good}, sampleEvent(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publisher bad")
	assert.Len(t, bad.events, 1)
	assert.Len(t, good.events, 1)
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), NewRegistry(nil), []PublisherConfig{{ID: "x", Type: "smtp"}}, nil)
	require.Error(t, err)

	pubs, err := BuildAll(context.Background(), DefaultRegistry(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pubs)
}
