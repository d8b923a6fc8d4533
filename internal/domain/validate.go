package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// recordValidate checks records at the gateway boundary. Tags live on the
// record types themselves.
var recordValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a record's struct tags and returns a single error naming
// every failing field.
func Validate(record any) error {
	err := recordValidate.Struct(record)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid %s: %s", recordName(record), strings.Join(fields, ", "))
}

func recordName(record any) string {
	switch record.(type) {
	case *SkillTree, SkillTree:
		return "skill tree"
	case *NewTree, NewTree:
		return "new tree"
	case *SkillNode, SkillNode:
		return "skill node"
	case *NodePatch, NodePatch:
		return "node patch"
	case *Progress, Progress:
		return "progress"
	case *User, User:
		return "user"
	case *Team, Team:
		return "team"
	case *TreeAssignment, TreeAssignment:
		return "tree assignment"
	default:
		return "record"
	}
}
