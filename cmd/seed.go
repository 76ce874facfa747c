/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"insiden/internal/auth"
	"insiden/internal/bootstrap"
	"insiden/internal/bootstrap/logging"
	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

type seedUser struct {
	email    string
	fullName string
	password string
	roles    []string
}

var seedRoles = []struct {
	name        string
	description string
}{
	{domainincident.RolePerawat, "Perawat pelapor insiden"},
	{domainincident.RolePJ, "Penanggung jawab unit"},
	{domainincident.RoleMutu, "Tim mutu rumah sakit"},
	{domainincident.RoleAdmin, "Administrator sistem"},
}

var seedDepartments = []string{"IGD", "Rawat Inap", "Rawat Jalan", "Farmasi", "Laboratorium"}
var seedLocations = []string{"Gedung A Lantai 1", "Gedung A Lantai 2", "Gedung B Lantai 1", "IGD Triage"}

var seedUsers = []seedUser{
	{email: "admin@rsua.local", fullName: "Administrator", password: "Admin123!", roles: []string{domainincident.RoleAdmin, domainincident.RoleMutu}},
	{email: "perawat@rsua.local", fullName: "Perawat Demo", password: "Perawat123!", roles: []string{domainincident.RolePerawat}},
	{email: "pj@rsua.local", fullName: "PJ Demo", password: "Pj123456!", roles: []string{domainincident.RolePJ}},
	{email: "mutu@rsua.local", fullName: "Mutu Demo", password: "Mutu1234!", roles: []string{domainincident.RoleMutu}},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed reference data and demo accounts",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start seed")

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		for _, role := range seedRoles {
			if err := deps.Users.EnsureRole(ctx, role.name, role.description); err != nil {
				return errs.Wrapf(err, "ensure role %s", role.name)
			}
		}
		for _, name := range seedDepartments {
			if err := deps.Users.EnsureDepartment(ctx, name, ""); err != nil {
				return errs.Wrapf(err, "ensure department %s", name)
			}
		}
		for _, name := range seedLocations {
			if err := deps.Users.EnsureLocation(ctx, name, ""); err != nil {
				return errs.Wrapf(err, "ensure location %s", name)
			}
		}

		created := 0
		for _, user := range seedUsers {
			inserted, err := seedUserAccount(ctx, deps.Users, user)
			if err != nil {
				return errs.Wrapf(err, "seed user %s", user.email)
			}
			if inserted {
				created++
			}
		}

		logging.Info(ctx, "seed finished",
			slog.Int("roles", len(seedRoles)),
			slog.Int("users_created", created),
		)
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "seed completed: %d new users\n", created); err != nil {
			return errs.Wrap(err, "write seed output")
		}
		return nil
	}),
}

// seedUserAccount is idempotent; an existing account is left untouched.
func seedUserAccount(ctx context.Context, users ports.UserRepository, user seedUser) (bool, error) {
	_, err := users.GetUserByEmail(ctx, user.email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ports.ErrUserNotFound) {
		return false, errs.Wrap(err, "lookup user")
	}

	hashed, err := auth.HashPassword(user.password)
	if err != nil {
		return false, errs.Wrap(err, "hash password")
	}
	if _, err := users.CreateUser(ctx, ports.UserCreate{
		Email:          user.email,
		FullName:       user.fullName,
		HashedPassword: hashed,
		Roles:          user.roles,
	}); err != nil {
		return false, errs.Wrap(err, "create user")
	}
	return true, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
