package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenis/storefront/internal/domain/fault"
)

var adminNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestAdmin(repo *mockCouponRepo) *AdminService {
	s := NewAdminService(repo)
	s.now = func() time.Time { return adminNow }
	return s
}

func TestAdminService_Create(t *testing.T) {
	repo := newMockRepo()
	s := newTestAdmin(repo)

	c, err := s.Create(context.Background(), Coupon{
		Code:       "welcome10",
		Kind:       KindPercentage,
		Value:      d("10"),
		Active:     true,
		ExpiresAt:  adminNow.AddDate(1, 0, 0),
		UsageCount: 7,
	})

	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", c.Code)
	assert.Equal(t, 0, c.UsageCount)
	assert.Equal(t, adminNow, c.CreatedAt)
	require.Contains(t, repo.byCode, "WELCOME10")
}

func TestAdminService_CreateDuplicate(t *testing.T) {
	repo := newMockRepo(Coupon{Code: "WELCOME10", Kind: KindPercentage, Value: d("10"), Active: true})
	s := newTestAdmin(repo)

	_, err := s.Create(context.Background(), Coupon{Code: "Welcome10", Kind: KindFixed, Value: d("5")})

	require.ErrorIs(t, err, ErrDuplicateCouponCode)
	assert.Zero(t, repo.createCalls)
}

func TestAdminService_CreateDuplicateRace(t *testing.T) {
	repo := newMockRepo()
	repo.writeErr = ErrDuplicateCouponCode
	s := newTestAdmin(repo)

	_, err := s.Create(context.Background(), Coupon{Code: "RACE", Kind: KindFixed, Value: d("5")})

	require.ErrorIs(t, err, ErrDuplicateCouponCode)
}

func TestAdminService_CreateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
	}{
		{name: "empty code", coupon: Coupon{Code: " ", Kind: KindFixed, Value: d("1")}},
		{name: "unknown kind", coupon: Coupon{Code: "X", Kind: Kind("bogo"), Value: d("1")}},
		{name: "negative value", coupon: Coupon{Code: "X", Kind: KindFixed, Value: d("-1")}},
		{name: "percentage above 100", coupon: Coupon{Code: "X", Kind: KindPercentage, Value: d("100.01")}},
		{name: "negative limit", coupon: Coupon{Code: "X", Kind: KindFixed, Value: d("1"), UsageLimit: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAdmin(newMockRepo()).Create(context.Background(), tt.coupon)
			require.ErrorIs(t, err, ErrInvalidCoupon)
		})
	}
}

func TestAdminService_Update(t *testing.T) {
	created := adminNow.Add(-48 * time.Hour)
	repo := newMockRepo(
		Coupon{Code: "SPRING", Kind: KindFixed, Value: d("5"), Active: true, UsageCount: 3, CreatedAt: created},
		Coupon{Code: "SUMMER", Kind: KindFixed, Value: d("5"), Active: true},
	)
	s := newTestAdmin(repo)

	t.Run("keeps usage and creation time", func(t *testing.T) {
		c, err := s.Update(context.Background(), "spring", Coupon{Kind: KindPercentage, Value: d("20"), Active: false})
		require.NoError(t, err)
		assert.Equal(t, "SPRING", c.Code)
		assert.Equal(t, 3, c.UsageCount)
		assert.Equal(t, created, c.CreatedAt)
		assert.Equal(t, adminNow, c.UpdatedAt)
		assert.True(t, decimal.NewFromInt(20).Equal(repo.byCode["SPRING"].Value))
	})

	t.Run("rename onto existing code", func(t *testing.T) {
		_, err := s.Update(context.Background(), "SPRING", Coupon{Code: "summer", Kind: KindFixed, Value: d("5")})
		require.ErrorIs(t, err, ErrDuplicateCouponCode)
	})

	t.Run("rename to free code", func(t *testing.T) {
		c, err := s.Update(context.Background(), "SPRING", Coupon{Code: "autumn", Kind: KindFixed, Value: d("5")})
		require.NoError(t, err)
		assert.Equal(t, "AUTUMN", c.Code)
		assert.Equal(t, "SPRING", repo.updatedCode)
	})

	t.Run("missing coupon", func(t *testing.T) {
		_, err := s.Update(context.Background(), "NOPE", Coupon{Kind: KindFixed, Value: d("5")})
		require.ErrorIs(t, err, ErrCouponNotFound)
	})
}

func TestAdminService_Delete(t *testing.T) {
	repo := newMockRepo(
		Coupon{Code: "UNUSED", Kind: KindFixed, Value: d("5")},
		Coupon{Code: "USED", Kind: KindFixed, Value: d("5"), UsageCount: 1},
	)
	s := newTestAdmin(repo)

	require.ErrorIs(t, s.Delete(context.Background(), "used"), ErrCouponInUse)
	assert.Contains(t, repo.byCode, "USED")

	require.NoError(t, s.Delete(context.Background(), "unused"))
	assert.Equal(t, "UNUSED", repo.deletedCode)

	require.ErrorIs(t, s.Delete(context.Background(), "unused"), ErrCouponNotFound)
}

func TestAdminService_RepositoryFailure(t *testing.T) {
	repo := newMockRepo()
	repo.findErr = errors.New("timeout")
	s := newTestAdmin(repo)

	_, err := s.List(context.Background())
	require.ErrorIs(t, err, fault.ErrCollaboratorUnavailable)

	_, err = s.Create(context.Background(), Coupon{Code: "X", Kind: KindFixed, Value: d("1")})
	require.ErrorIs(t, err, fault.ErrCollaboratorUnavailable)
}
