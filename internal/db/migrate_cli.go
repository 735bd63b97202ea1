package db

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log"
	"strconv"
	"strings"
)

// MigrateActions lists the actions understood by RunMigrateAction.
var MigrateActions = []string{"up", "down", "status", "version", "force"}

// MigrateIO carries the streams used by the migrate command. In is read for
// the force confirmation unless AssumeYes is set.
type MigrateIO struct {
	In        io.Reader
	Out       io.Writer
	AssumeYes bool
}

// RunMigrateAction runs one migrate action against database.
func RunMigrateAction(database *DB, fsys fs.FS, action string, args []string, mio MigrateIO) error {
	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(fsys); err != nil {
			return err
		}
		log.Println("✓ All migrations applied successfully")
		return printVersion(database, fsys, mio.Out)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(fsys); err != nil {
			return err
		}
		log.Println("✓ Migration rolled back successfully")
		return printVersion(database, fsys, mio.Out)

	case "status":
		return printStatus(database, fsys, mio.Out)

	case "version":
		v, err := versionArg(args)
		if err != nil {
			return err
		}
		log.Printf("Migrating to version %d...", v)
		if err := database.MigrateTo(fsys, uint(v)); err != nil {
			return err
		}
		log.Printf("✓ Migrated to version %d successfully", v)
		return nil

	case "force":
		v, err := versionArg(args)
		if err != nil {
			return err
		}
		if !mio.AssumeYes && !confirm(mio, fmt.Sprintf("⚠️  Forcing migration version to %d. This should only be used to recover from a dirty migration state. Continue? [y/N]: ", v)) {
			log.Println("Aborted")
			return nil
		}
		if err := database.MigrateForce(fsys, v); err != nil {
			return err
		}
		log.Printf("✓ Migration version forced to %d", v)
		return nil

	default:
		return fmt.Errorf("unknown migrate action %q (want one of %s)", action, strings.Join(MigrateActions, ", "))
	}
}

func versionArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("a version number is required")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version number: %s", args[0])
	}
	return v, nil
}

func confirm(mio MigrateIO, prompt string) bool {
	fmt.Fprint(mio.Out, prompt)
	if mio.In == nil {
		return false
	}
	line, _ := bufio.NewReader(mio.In).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func printVersion(database *DB, fsys fs.FS, out io.Writer) error {
	version, dirty, err := database.MigrateVersion(fsys)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func printStatus(database *DB, fsys fs.FS, out io.Writer) error {
	st, err := database.GetMigrationStatus(fsys)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", st.CurrentVersion)
	fmt.Fprintf(out, "Latest available: %d\n", st.LatestVersion)
	fmt.Fprintf(out, "Dirty: %v\n", st.Dirty)
	fmt.Fprintf(out, "Schema migrations table exists: %v\n", st.TableExists)

	switch {
	case st.Dirty:
		fmt.Fprintln(out, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(out, "A migration failed mid-execution. Inspect the database, then run: elections migrate force <version>")
	case st.Pending():
		fmt.Fprintf(out, "\n⚠️  Database is %d version(s) behind. Run 'elections migrate up' to update.\n", st.LatestVersion-st.CurrentVersion)
	default:
		fmt.Fprintln(out, "\n✓ Database is up to date!")
	}
	return nil
}
