// Package accounts removes a user together with the data of their organization.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/identity"
	"puantajx-functions/pkg/orgs"
)

// DependentTables reference organizations by code in their org_id column.
// Rows are deleted in this order.
var DependentTables = []string{"daily_reports", "project_workers", "workers", "projects", "teams"}

// StillPresentMessage is returned when the user survives deletion.
const StillPresentMessage = "Hesap silinemedi (Sunucu hatası). Lütfen desteğe başvurun."

// Report describes what a deletion did. Warnings hold the non-fatal failures.
type Report struct {
	UserID        string
	OrgCode       string
	OrgID         string
	CleanedTables []string
	Warnings      []error
}

// Deleter runs the account deletion sequence. No step is transactional and a
// failure part way leaves the remaining rows behind.
type Deleter struct {
	users    identity.Store
	records  database.RecordStore
	resolver *orgs.Resolver
}

// NewDeleter 创建账号删除器
func NewDeleter(users identity.Store, records database.RecordStore) *Deleter {
	return &Deleter{
		users:    users,
		records:  records,
		resolver: orgs.NewResolver(records),
	}
}

// DeleteAccount authenticates token, cleans the organization's rows and
// deletes the user. Only authentication, user deletion and the final check
// are fatal.
func (d *Deleter) DeleteAccount(ctx context.Context, token string) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(token) == "" {
		return nil, apperr.New(apperr.KindAuth, "User verification failed: missing access token")
	}

	user, err := d.users.VerifyToken(ctx, token)
	if err != nil {
		logger.Error().Err(err).Msg("user verification failed")
		return nil, apperr.Wrap(apperr.KindAuth, err, "User verification failed")
	}

	report := &Report{UserID: user.ID}
	warn := func(err error) {
		report.Warnings = append(report.Warnings, err)
	}

	if orgName := user.OrgName(); orgName == "" {
		logger.Warn().Str("user_id", user.ID).Msg("user has no org_name in metadata, skipping data cleanup")
		warn(errors.New("user has no org_name in metadata"))
	} else {
		report.OrgCode = orgs.DeriveCode(orgName)
		logger.Info().Str("org_name", orgName).Str("org_code", report.OrgCode).Msg("derived organization code")

		var (
			row database.Row
			err error
		)
		if report.OrgCode != "" {
			row, err = d.resolver.FindByCode(ctx, report.OrgCode)
		}
		switch {
		case report.OrgCode == "":
			// 空code会匹配其他同样无字母数字名称的组织
			logger.Warn().Str("org_name", orgName).Msg("org_name has no letters or digits, skipping data cleanup")
			warn(fmt.Errorf("org_name %q derives an empty organization code", orgName))
		case err == nil && row.String("id") != "":
			report.OrgID = row.String("id")
		case err == nil || errors.Is(err, database.ErrNotFound):
			logger.Warn().Str("org_code", report.OrgCode).Msg("no organization found, skipping data cleanup")
			warn(fmt.Errorf("no organization found with code %s", report.OrgCode))
		default:
			logger.Warn().Err(err).Str("org_code", report.OrgCode).Msg("organization lookup failed, skipping data cleanup")
			warn(fmt.Errorf("organization lookup failed: %w", err))
		}
	}

	if report.OrgID != "" && report.OrgCode != "" {
		d.cascade(ctx, report, warn)
	}

	logger.Info().Str("user_id", user.ID).Msg("deleting user")
	if err := d.users.DeleteUser(ctx, user.ID); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("delete user failed")
		return report, apperr.Wrap(apperr.KindUpstream, err, "")
	}

	// A user still present after deletion is an inconsistency. Lookup
	// errors are treated as absence.
	if still, err := d.users.GetUserByID(ctx, user.ID); err == nil && still != nil {
		logger.Error().Str("user_id", user.ID).Msg("user still exists after deletion")
		return report, apperr.New(apperr.KindDeletionVerification, StillPresentMessage)
	}

	logger.Info().Str("user_id", user.ID).Int("warnings", len(report.Warnings)).Msg("account deleted")
	return report, nil
}

func (d *Deleter) cascade(ctx context.Context, report *Report, warn func(error)) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("org_code", report.OrgCode).Str("org_id", report.OrgID).Msg("starting cascade delete")

	for _, table := range DependentTables {
		n, err := d.records.Delete(ctx, table, database.Where("org_id", report.OrgCode))
		if err != nil {
			logger.Warn().Err(err).Str("table", table).Msg("dependent delete failed")
			warn(apperr.Wrap(apperr.KindDependencyDelete, err, "failed to delete "+table))
			continue
		}
		logger.Debug().Str("table", table).Int("rows", n).Msg("dependent rows deleted")
		report.CleanedTables = append(report.CleanedTables, table)
	}

	if _, err := d.records.Delete(ctx, orgs.Table, database.Where("id", report.OrgID)); err != nil {
		logger.Error().Err(err).Str("org_id", report.OrgID).Msg("organization delete failed")
		warn(apperr.Wrap(apperr.KindDependencyDelete, err, "failed to delete organization"))
	}
}
