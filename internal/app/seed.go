package app

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/helpdesk-ml/helpdesk/internal/service"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

// SeedAccount is one account entry of a seed file.
type SeedAccount struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Phone      string `yaml:"phone"`
	Department string `yaml:"department"`
}

// SeedTechnician adds routing attributes.
type SeedTechnician struct {
	SeedAccount    `yaml:",inline"`
	Skills         []string `yaml:"skills"`
	MaxWorkload    int      `yaml:"max_workload"`
	ExpertiseLevel string   `yaml:"expertise_level"`
}

// SeedFile lists accounts to provision.
type SeedFile struct {
	Admins      []SeedAccount    `yaml:"admins"`
	Users       []SeedAccount    `yaml:"users"`
	Technicians []SeedTechnician `yaml:"technicians"`
}

// SeedReport counts created and already present accounts.
type SeedReport struct {
	Created int
	Skipped int
}

// ParseSeed decodes a YAML seed file, rejecting unknown keys.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed SeedFile
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}

// Seed provisions every account in seed. Existing emails are skipped, so
// running the same file twice is harmless.
func Seed(ctx context.Context, accounts *service.AccountService, seed *SeedFile) (SeedReport, error) {
	var report SeedReport
	track := func(kind, email string, err error) error {
		switch {
		case err == nil:
			report.Created++
		case apperrors.IsCode(err, "CONFLICT"):
			report.Skipped++
		default:
			return fmt.Errorf("seed %s %s: %w", kind, email, err)
		}
		return nil
	}

	for _, a := range seed.Admins {
		_, err := accounts.CreateAdmin(ctx, toAccount(a))
		if err := track("admin", a.Email, err); err != nil {
			return report, err
		}
	}
	for _, u := range seed.Users {
		_, err := accounts.CreateUser(ctx, toAccount(u))
		if err := track("user", u.Email, err); err != nil {
			return report, err
		}
	}
	for _, t := range seed.Technicians {
		_, err := accounts.CreateTechnician(ctx, service.NewTechnician{
			NewAccount:     toAccount(t.SeedAccount),
			Skills:         t.Skills,
			MaxWorkload:    t.MaxWorkload,
			ExpertiseLevel: t.ExpertiseLevel,
		})
		if err := track("technician", t.Email, err); err != nil {
			return report, err
		}
	}
	return report, nil
}

func toAccount(a SeedAccount) service.NewAccount {
	return service.NewAccount{
		Name:       a.Name,
		Email:      a.Email,
		Password:   a.Password,
		Phone:      a.Phone,
		Department: a.Department,
	}
}
