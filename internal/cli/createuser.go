package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/users"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// CreateUserCommand adds an account from the command line, e.g. the first
// librarian on a server that is not reachable through /setup.
type CreateUserCommand struct {
	Database   databaseFlags
	Username   string
	Email      string
	Password   string
	Role       string
	BcryptCost int
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)

	cmd.Database.register(fs)
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", os.Getenv("LIBRARY_PASSWORD"), "Password, at least 12 characters (defaults to $LIBRARY_PASSWORD)")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleMember), "Role: admin, librarian or member")
	fs.IntVar(&cmd.BcryptCost, "bcrypt-cost", 12, "bcrypt cost factor")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s createuser -username <name> -email <email> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a library account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s createuser -username alice -email alice@example.com -role librarian\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	if !entities.UserRole(cmd.Role).IsValid() {
		return fmt.Errorf("unknown role %q", cmd.Role)
	}
	return cmd.Database.validate()
}

func (cmd *CreateUserCommand) Run() error {
	db, err := cmd.Database.open()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := auth.NewService(users.NewRepository(db.DB), config.Auth{BcryptCost: cmd.BcryptCost})
	user, err := svc.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRole(cmd.Role))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}
