package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
)

func TestDownloadEndToEndUntilLimit(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 0, 3, f.clock.Now().Add(30*24*time.Hour))

	for want := 1; want <= 3; want++ {
		res, err := f.service.Download(ctx, application.DownloadRequest{Token: p.DownloadToken, IPAddress: "10.0.0.1", UserAgent: "test"})
		if err != nil {
			t.Fatalf("download %d failed: %v", want, err)
		}
		if !strings.Contains(res.URL, "ai-reality-check.pdf") {
			t.Fatalf("unexpected signed url: %s", res.URL)
		}
		if got := f.purchases.get(p.ID).DownloadCount; got != want {
			t.Fatalf("expected download_count=%d, got %d", want, got)
		}
	}

	if _, err := f.service.Download(ctx, application.DownloadRequest{Token: p.DownloadToken}); !errors.Is(err, domain.ErrDownloadLimitReached) {
		t.Fatalf("expected limit reached on fourth download, got %v", err)
	}
	if got := f.purchases.get(p.ID).DownloadCount; got != 3 {
		t.Fatalf("denied download must not move the counter, got %d", got)
	}
	if got := f.downloads.count(); got != 3 {
		t.Fatalf("expected 3 download events, got %d", got)
	}
}

func TestDownloadExpiredPurchase(t *testing.T) {
	t.Parallel()

	f := newFixture()
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 0, 3, f.clock.Now().Add(-24*time.Hour))

	_, err := f.service.Download(context.Background(), application.DownloadRequest{Token: p.DownloadToken})
	if !errors.Is(err, domain.ErrPurchaseExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if f.purchases.get(p.ID).DownloadCount != 0 || f.downloads.count() != 0 {
		t.Fatalf("expired download must have no side effects")
	}
}

func TestDownloadStaysExpiredAfterSweep(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 1, 3, f.clock.Now().Add(-24*time.Hour))

	if _, err := f.service.Download(ctx, application.DownloadRequest{Token: p.DownloadToken}); !errors.Is(err, domain.ErrPurchaseExpired) {
		t.Fatalf("before sweep: expected expired, got %v", err)
	}
	if _, err := f.service.ExpireOverduePurchases(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if f.purchases.get(p.ID).Status != domain.PurchaseStatusExpired {
		t.Fatalf("sweep should mark the purchase expired")
	}

	if _, err := f.service.Download(ctx, application.DownloadRequest{Token: p.DownloadToken}); !errors.Is(err, domain.ErrPurchaseExpired) {
		t.Fatalf("after sweep: expected expired, got %v", err)
	}
	status, err := f.service.DownloadStatus(ctx, p.DownloadToken)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Reason != domain.AccessExpired || !status.IsExpired || status.CanDownload {
		t.Fatalf("unexpected status after sweep: %+v", status)
	}
	if f.purchases.get(p.ID).DownloadCount != 1 {
		t.Fatalf("denied download must not move the counter")
	}
}

func TestDownloadDeniedReasons(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	pending := f.seedPurchase("p@example.com", domain.PurchaseStatusPending, 0, 3, f.clock.Now().Add(time.Hour))

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "malformed", token: "not-a-token", want: domain.ErrInvalidInput},
		{name: "unknown", token: domain.GenerateToken(domain.DownloadTokenBytes), want: domain.ErrNotFound},
		{name: "pending", token: pending.DownloadToken, want: domain.ErrNotCompleted},
	}
	for _, tc := range cases {
		if _, err := f.service.Download(ctx, application.DownloadRequest{Token: tc.token}); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if f.objects.calls != 0 {
		t.Fatalf("denied downloads must not mint urls")
	}
}

func TestDownloadConcurrentRequestsRespectLimit(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 2, 5, f.clock.Now().Add(time.Hour))

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		limited   int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.Download(ctx, application.DownloadRequest{Token: p.DownloadToken})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrDownloadLimitReached):
				limited++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if succeeded != 3 || limited != workers-3 {
		t.Fatalf("expected 3 successes and %d limited, got %d and %d", workers-3, succeeded, limited)
	}
	if got := f.purchases.get(p.ID).DownloadCount; got != 5 {
		t.Fatalf("expected final count 5, got %d", got)
	}
	if got := f.downloads.count(); got != 3 {
		t.Fatalf("expected 3 download events, got %d", got)
	}
}

func TestDownloadSigningFailureKeepsCounter(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.objects.err = errBoom
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 0, 3, f.clock.Now().Add(time.Hour))

	_, err := f.service.Download(context.Background(), application.DownloadRequest{Token: p.DownloadToken})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if got := f.purchases.get(p.ID).DownloadCount; got != 0 {
		t.Fatalf("failed signing must not consume a download, got %d", got)
	}
}

func TestDownloadEventFailureDoesNotFailDownload(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.downloads.err = errBoom
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 0, 3, f.clock.Now().Add(time.Hour))

	if _, err := f.service.Download(context.Background(), application.DownloadRequest{Token: p.DownloadToken}); err != nil {
		t.Fatalf("expected download to succeed, got %v", err)
	}
	if got := f.purchases.get(p.ID).DownloadCount; got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
}

func TestDownloadStatusHasNoSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	p := f.seedPurchase("buyer@example.com", domain.PurchaseStatusCompleted, 3, 3, f.clock.Now().Add(time.Hour))

	for i := 0; i < 2; i++ {
		status, err := f.service.DownloadStatus(ctx, p.DownloadToken)
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if status.CanDownload || status.Reason != domain.AccessLimitExceeded || !status.IsLimitExceeded {
			t.Fatalf("expected limit exceeded status, got %+v", status)
		}
		if status.IsExpired || !status.IsCompleted {
			t.Fatalf("unexpected flags: %+v", status)
		}
		if status.Purchase.FileName != "AI-Reality-Check-eBook.pdf" {
			t.Fatalf("expected product file name, got %q", status.Purchase.FileName)
		}
	}
	if f.purchases.get(p.ID).DownloadCount != 3 || f.downloads.count() != 0 || f.objects.calls != 0 {
		t.Fatalf("status lookups must not have side effects")
	}
}

func TestDownloadStatusHidesNeverExpiresSentinel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	p := f.seedPurchase("legacy@example.com", domain.PurchaseStatusCompleted, 0, 5, domain.NeverExpires)

	status, err := f.service.DownloadStatus(context.Background(), p.DownloadToken)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Purchase.ExpiresAt != nil {
		t.Fatalf("expected nil expires_at for never-expiring purchase")
	}
	if !status.CanDownload {
		t.Fatalf("expected never-expiring purchase to be downloadable")
	}
}

func TestExpireOverduePurchases(t *testing.T) {
	t.Parallel()

	f := newFixture()
	overdue := f.seedPurchase("a@example.com", domain.PurchaseStatusCompleted, 0, 3, f.clock.Now().Add(-time.Minute))
	current := f.seedPurchase("b@example.com", domain.PurchaseStatusCompleted, 0, 3, f.clock.Now().Add(time.Minute))
	pending := f.seedPurchase("c@example.com", domain.PurchaseStatusPending, 0, 3, f.clock.Now().Add(-time.Minute))

	n, err := f.service.ExpireOverduePurchases(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired purchase, got %d", n)
	}
	if f.purchases.get(overdue.ID).Status != domain.PurchaseStatusExpired {
		t.Fatalf("overdue purchase should be expired")
	}
	if f.purchases.get(current.ID).Status != domain.PurchaseStatusCompleted {
		t.Fatalf("current purchase must stay completed")
	}
	if f.purchases.get(pending.ID).Status != domain.PurchaseStatusPending {
		t.Fatalf("pending purchase must stay pending")
	}
}
