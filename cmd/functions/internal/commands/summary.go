package commands

import (
	"context"
	"encoding/json"
	"os"

	handler "puantajx-functions/api"
	"puantajx-functions/pkg/digest"
)

type MonthlySummaryCmd struct {
	Pretty bool `help:"Indent the JSON output."`
}

func (m *MonthlySummaryCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, cfg, log, err := loadConfig(ctx, globals)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := handler.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Records.Close()

	summary, err := digest.NewSender(deps.Records, deps.Mailer, cfg.MailFrom, cfg.AppBaseURL).Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("processed", summary.Processed).Msg("monthly summary finished")

	enc := json.NewEncoder(os.Stdout)
	if m.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(summary)
}
