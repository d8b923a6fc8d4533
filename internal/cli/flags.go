package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/skilltree/internal/domain"
	"github.com/spf13/pflag"
)

// Globals are the flags shared by every command.
type Globals struct {
	ConfigPath  string
	DBPath      string
	UserID      string
	MetricsFile string
}

func bindGlobalFlags(fs *pflag.FlagSet, g *Globals) {
	fs.StringVar(&g.ConfigPath, "config", "", "Config file (default ~/.skilltree/config.yaml)")
	fs.StringVar(&g.DBPath, "db", "", "SQLite database path")
	fs.StringVar(&g.UserID, "user", "", "Acting user ID")
	fs.StringVar(&g.MetricsFile, "metrics-file", "", "Write gateway metrics to this file on exit")
}

// roleValue is a pflag.Value restricted to the known roles.
type roleValue domain.Role

var _ pflag.Value = (*roleValue)(nil)

func (r *roleValue) String() string { return string(*r) }

func (r *roleValue) Set(s string) error {
	role := domain.Role(strings.ToLower(s))
	switch role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleMember:
		*r = roleValue(role)
		return nil
	}
	return fmt.Errorf("must be one of admin, manager, member")
}

func (r *roleValue) Type() string { return "role" }
