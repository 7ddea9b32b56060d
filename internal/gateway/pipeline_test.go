package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/telepath-bot/telepath/internal/access"
	"github.com/telepath-bot/telepath/internal/agent"
	"github.com/telepath-bot/telepath/pkg/models"
)

type fakeReplier struct {
	reply   string
	err     error
	started chan struct{}
	block   chan struct{}
	calls   atomic.Int32
}

func (f *fakeReplier) Reply(ctx context.Context, msg models.IncomingMessage) (string, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
}

func (f *fakeSender) Send(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	f.chats = append(f.chats, chatID)
	return nil
}

func (f *fakeSender) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTestPipeline(allowed string, replier Replier, sender Sender) *Pipeline {
	return NewPipeline(access.Parse(allowed), agent.NewAdmission(2), replier, sender, nil, nil)
}

func direct(senderID int64, text string) models.IncomingMessage {
	return models.IncomingMessage{SenderID: senderID, ChatID: 1, Text: text, Kind: models.KindDirect}
}

func TestHandleWhoamiBypassesGate(t *testing.T) {
	sender := &fakeSender{}
	replier := &fakeReplier{reply: "should not run"}
	p := newTestPipeline("999", replier, sender)

	p.Handle(context.Background(), direct(42, "/whoami"))

	sent := sender.all()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if !strings.Contains(sent[0], "42") {
		t.Errorf("whoami reply = %q, want the numeric sender ID", sent[0])
	}
	if replier.calls.Load() != 0 {
		t.Error("whoami must short-circuit before the orchestrator")
	}
}

func TestHandleBlockedSenderSilentlyDropped(t *testing.T) {
	sender := &fakeSender{}
	replier := &fakeReplier{reply: "should not run"}
	p := newTestPipeline("999", replier, sender)

	p.Handle(context.Background(), direct(42, "hello"))

	if got := sender.all(); len(got) != 0 {
		t.Errorf("blocked sender received %v, want silence", got)
	}
	if replier.calls.Load() != 0 {
		t.Error("blocked sender must not reach the orchestrator")
	}
}

func TestHandleStartAndHelp(t *testing.T) {
	sender := &fakeSender{}
	replier := &fakeReplier{reply: "should not run"}
	p := newTestPipeline("", replier, sender)

	p.Handle(context.Background(), direct(1, "/start"))
	p.Handle(context.Background(), direct(1, "/help"))

	sent := sender.all()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if sent[0] != startReply {
		t.Errorf("start reply = %q", sent[0])
	}
	if sent[1] != helpReply {
		t.Errorf("help reply = %q", sent[1])
	}
	if replier.calls.Load() != 0 {
		t.Error("commands must not reach the orchestrator")
	}
}

func TestHandleRepliesThroughOrchestrator(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPipeline("", &fakeReplier{reply: "答案"}, sender)

	p.Handle(context.Background(), direct(1, "問題"))

	sent := sender.all()
	if len(sent) != 1 || sent[0] != "答案" {
		t.Errorf("sent = %v, want the orchestrator reply", sent)
	}
}

func TestHandleOrchestratorFailureSendsApology(t *testing.T) {
	sender := &fakeSender{}
	p := newTestPipeline("", &fakeReplier{err: errors.New("all endpoints down")}, sender)

	p.Handle(context.Background(), direct(1, "問題"))

	sent := sender.all()
	if len(sent) != 1 || sent[0] != apologyReply {
		t.Errorf("sent = %v, want the apology", sent)
	}
}

func TestHandleBusyWhenAdmissionFull(t *testing.T) {
	sender := &fakeSender{}
	replier := &fakeReplier{
		reply:   "slow answer",
		started: make(chan struct{}, 2),
		block:   make(chan struct{}),
	}
	p := newTestPipeline("", replier, sender)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Handle(context.Background(), direct(1, "slow question"))
		}()
	}
	<-replier.started
	<-replier.started

	// Both slots are held; the third request is rejected, not queued.
	p.Handle(context.Background(), direct(1, "one too many"))

	sent := sender.all()
	if len(sent) != 1 || sent[0] != busyReply {
		t.Fatalf("sent = %v, want only the busy message so far", sent)
	}

	close(replier.block)
	wg.Wait()

	// After the releases, capacity is available again.
	p.Handle(context.Background(), direct(1, "after the rush"))
	final := sender.all()
	if final[len(final)-1] != "slow answer" {
		t.Errorf("post-release reply = %q, want a normal answer", final[len(final)-1])
	}
}
