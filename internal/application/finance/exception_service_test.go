package finance

import (
	"context"
	"testing"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOpenException(t *testing.T, tenantID uuid.UUID, code finance.ExceptionCode) *finance.MatchException {
	t.Helper()
	invoice := &finance.InvoiceForMatch{
		ID:       uuid.New(),
		TenantID: tenantID,
		VendorID: uuid.New(),
		Status:   finance.InvoiceStatusSubmitted,
	}
	match, err := finance.NewMatchResult(invoice, finance.MatchOutcome{
		Mode:          finance.MatchModeThreeWay,
		Status:        finance.MatchStatusException,
		ExceptionCode: &code,
	}, newActor(tenantID, "ap_clerk"))
	require.NoError(t, err)
	exception, err := finance.NewMatchException(match)
	require.NoError(t, err)
	return exception
}

func newExceptionService(repos *testRepos) *ExceptionService {
	return NewExceptionService(ExceptionServiceConfig{
		ExceptionRepo: repos.exceptions,
		TxScope:       repos.scope,
	})
}

func TestExceptionService_List_DefaultsToOpen(t *testing.T) {
	repos := newTestRepos()
	service := newExceptionService(repos)
	actor := newActor(uuid.New(), "ap_clerk")
	high := finance.SeverityHigh
	items := []finance.MatchException{*newOpenException(t, actor.TenantID, finance.ExceptionCodeMissingPO)}

	repos.exceptions.On("List", mock.Anything, actor.TenantID, mock.MatchedBy(func(f finance.ExceptionFilter) bool {
		return f.ResolutionStatus != nil && *f.ResolutionStatus == finance.ResolutionStatusOpen &&
			f.Severity != nil && *f.Severity == finance.SeverityHigh &&
			f.Page == 1 && f.PageSize > 0
	})).Return(items, int64(1), nil)

	page, err := service.List(context.Background(), actor, finance.ExceptionFilter{Severity: &high})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, finance.SeverityHigh, page.Items[0].Severity)
}

func TestExceptionService_List_InvalidSeverity(t *testing.T) {
	repos := newTestRepos()
	service := newExceptionService(repos)
	bogus := finance.ExceptionSeverity("urgent")

	_, err := service.List(context.Background(), newActor(uuid.New(), "ap_clerk"), finance.ExceptionFilter{Severity: &bogus})

	assert.ErrorIs(t, err, finance.ErrInvalidSeverityFilter)
	repos.exceptions.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestExceptionService_Get_NotFound(t *testing.T) {
	repos := newTestRepos()
	service := newExceptionService(repos)
	actor := newActor(uuid.New(), "ap_clerk")
	id := uuid.New()
	repos.exceptions.On("FindByID", mock.Anything, actor.TenantID, id).Return(nil, shared.ErrNotFound)

	_, err := service.Get(context.Background(), actor, id)

	assert.ErrorIs(t, err, finance.ErrMatchExceptionNotFound)
}

func TestExceptionService_Resolve(t *testing.T) {
	repos := newTestRepos()
	service := newExceptionService(repos)
	actor := newActor(uuid.New(), "ap_manager")
	exception := newOpenException(t, actor.TenantID, finance.ExceptionCodeInsufficientReceipt)
	ctx := context.Background()

	repos.exceptions.On("FindByID", mock.Anything, actor.TenantID, exception.ID).Return(exception, nil)
	repos.exceptions.On("Update", mock.Anything, exception, 1).Return(nil).Once()
	repos.audit.On("Record", mock.Anything, mock.MatchedBy(func(e *finance.AuditEvent) bool {
		return e.EventType == finance.AuditExceptionResolved && e.Payload["action"] == "receipt_posted"
	})).Return(nil).Once()

	resolved, err := service.Resolve(ctx, exception.ID, ResolveExceptionInput{
		Action: "receipt_posted",
		Note:   "GRN-22 posted late",
	}, actor, 1)

	require.NoError(t, err)
	assert.Equal(t, finance.ResolutionStatusResolved, resolved.ResolutionStatus)
	assert.Equal(t, "GRN-22 posted late", resolved.ResolutionNote)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, actor.UserID, *resolved.ResolvedBy)
	assert.Equal(t, 2, resolved.Version)
	repos.matches.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	repos.audit.AssertExpectations(t)
}

func TestExceptionService_Resolve_Errors(t *testing.T) {
	t.Run("unknown action", func(t *testing.T) {
		repos := newTestRepos()
		actor := newActor(uuid.New(), "ap_manager")
		exception := newOpenException(t, actor.TenantID, finance.ExceptionCodePriceVariance)
		repos.exceptions.On("FindByID", mock.Anything, actor.TenantID, exception.ID).Return(exception, nil)

		_, err := newExceptionService(repos).Resolve(context.Background(), exception.ID,
			ResolveExceptionInput{Action: "ignored"}, actor, 1)

		assert.ErrorIs(t, err, finance.ErrInvalidExceptionResolution)
	})

	t.Run("override is not a manual action", func(t *testing.T) {
		repos := newTestRepos()
		actor := newActor(uuid.New(), "ap_manager")
		exception := newOpenException(t, actor.TenantID, finance.ExceptionCodePriceVariance)
		repos.exceptions.On("FindByID", mock.Anything, actor.TenantID, exception.ID).Return(exception, nil)

		_, err := newExceptionService(repos).Resolve(context.Background(), exception.ID,
			ResolveExceptionInput{Action: string(finance.ResolutionOverridden)}, actor, 1)

		assert.ErrorIs(t, err, finance.ErrInvalidExceptionResolution)
	})

	t.Run("already resolved", func(t *testing.T) {
		repos := newTestRepos()
		actor := newActor(uuid.New(), "ap_manager")
		exception := newOpenException(t, actor.TenantID, finance.ExceptionCodePriceVariance)
		require.NoError(t, exception.Resolve(finance.ResolutionPOAmended, "", actor))
		repos.exceptions.On("FindByID", mock.Anything, actor.TenantID, exception.ID).Return(exception, nil)

		_, err := newExceptionService(repos).Resolve(context.Background(), exception.ID,
			ResolveExceptionInput{Action: "po_amended"}, actor, 2)

		assert.ErrorIs(t, err, finance.ErrExceptionAlreadyResolved)
		assert.True(t, shared.IsConflict(err))
	})

	t.Run("stale version", func(t *testing.T) {
		repos := newTestRepos()
		actor := newActor(uuid.New(), "ap_manager")
		exception := newOpenException(t, actor.TenantID, finance.ExceptionCodePriceVariance)
		repos.exceptions.On("FindByID", mock.Anything, actor.TenantID, exception.ID).Return(exception, nil)

		_, err := newExceptionService(repos).Resolve(context.Background(), exception.ID,
			ResolveExceptionInput{Action: "po_amended"}, actor, 5)

		assert.ErrorIs(t, err, finance.ErrExceptionConcurrency)
		assert.True(t, exception.IsOpen())
		repos.exceptions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}
