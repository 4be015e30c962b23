package migration

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.gdb.dev/gdb/board/src/db"
	"git.gdb.dev/gdb/board/src/devserver"
	"git.gdb.dev/gdb/board/src/migration/migrations"
	"git.gdb.dev/gdb/board/src/migration/types"
	"git.gdb.dev/gdb/board/src/oops"
	"git.gdb.dev/gdb/board/src/website"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

var listMigrations bool

func init() {
	migrateCommand := &cobra.Command{
		Use:   "migrate [target migration id]",
		Short: "Run database migrations for the dev API",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if listMigrations {
				ListMigrations(ctx)
				return
			}

			targetVersion := time.Time{}
			if len(args) > 0 {
				var err error
				targetVersion, err = time.Parse(time.RFC3339, args[0])
				if err != nil {
					fmt.Printf("ERROR: bad version string: %v\n", err)
					os.Exit(1)
				}
			}

			conn, err := db.NewConn(ctx)
			if err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
			defer conn.Close(ctx)

			if err := Migrate(ctx, conn, types.MigrationVersion(targetVersion)); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}
	migrateCommand.Flags().BoolVar(&listMigrations, "list", false, "List available migrations")

	makeMigrationCommand := &cobra.Command{
		Use:   "makemigration <name> <description>...",
		Short: "Create a new database migration file",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a name and a description.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			name := args[0]
			description := strings.Join(args[1:], " ")

			MakeMigration(name, description)
		},
	}

	var numPosts int
	seedCommand := &cobra.Command{
		Use:   "seed",
		Short: "Migrate to the latest version and fill the dev API database with sample posts",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if err := SampleSeed(ctx, numPosts); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}
	seedCommand.Flags().IntVar(&numPosts, "posts", 20, "Number of posts to create")

	website.WebsiteCommand.AddCommand(migrateCommand)
	website.WebsiteCommand.AddCommand(makeMigrationCommand)
	website.WebsiteCommand.AddCommand(seedCommand)
}

func getSortedMigrationVersions() []types.MigrationVersion {
	var allVersions []types.MigrationVersion
	for migrationTime := range migrations.All {
		allVersions = append(allVersions, migrationTime)
	}
	sort.Slice(allVersions, func(i, j int) bool {
		return allVersions[i].Before(allVersions[j])
	})

	return allVersions
}

func LatestVersion() types.MigrationVersion {
	allVersions := getSortedMigrationVersions()
	return allVersions[len(allVersions)-1]
}

func getCurrentVersion(ctx context.Context, conn db.ConnOrTx) (types.MigrationVersion, error) {
	currentVersion, err := db.QueryOneScalar[time.Time](ctx, conn, "SELECT version FROM board_migration")
	if err != nil {
		return types.MigrationVersion{}, err
	}
	return types.MigrationVersion(currentVersion.UTC()), nil
}

func tryGetCurrentVersion(ctx context.Context) types.MigrationVersion {
	conn, err := db.NewConn(ctx)
	if err != nil {
		return types.MigrationVersion{}
	}
	defer conn.Close(ctx)

	currentVersion, _ := getCurrentVersion(ctx, conn)
	return currentVersion
}

func ListMigrations(ctx context.Context) {
	currentVersion := tryGetCurrentVersion(ctx)
	for _, version := range getSortedMigrationVersions() {
		migration := migrations.All[version]
		indicator := "  "
		if version.Equal(currentVersion) {
			indicator = "✔ "
		}
		fmt.Printf("%s%v (%s: %s)\n", indicator, version, migration.Name(), migration.Description())
	}
}

// Migrate rolls the database forward or back to targetVersion, one migration
// per transaction. A zero targetVersion means the latest migration.
func Migrate(ctx context.Context, conn *pgx.Conn, targetVersion types.MigrationVersion) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS board_migration (
			version		TIMESTAMP WITH TIME ZONE
		)
	`)
	if err != nil {
		return oops.New(err, "failed to create migration table")
	}

	// ensure there is a row
	numRows, err := db.QueryOneScalar[int](ctx, conn, "SELECT COUNT(*) FROM board_migration")
	if err != nil {
		return oops.New(err, "failed to count migration rows")
	}
	if numRows < 1 {
		_, err := conn.Exec(ctx, "INSERT INTO board_migration (version) VALUES ($1)", time.Time{})
		if err != nil {
			return oops.New(err, "failed to insert initial migration row")
		}
	}

	currentVersion, err := getCurrentVersion(ctx, conn)
	if err != nil {
		return oops.New(err, "failed to get current version")
	}
	if currentVersion.IsZero() {
		fmt.Println("This is the first time you have run database migrations.")
	} else {
		fmt.Printf("Current version: %s\n", currentVersion.String())
	}

	allVersions := getSortedMigrationVersions()
	if targetVersion.IsZero() {
		targetVersion = allVersions[len(allVersions)-1]
	}

	currentIndex, targetIndex, err := migrationIndexes(allVersions, currentVersion, targetVersion)
	if err != nil {
		return err
	}

	if currentIndex < targetIndex {
		// roll forward
		for i := currentIndex + 1; i <= targetIndex; i++ {
			version := allVersions[i]
			migration := migrations.All[version]
			fmt.Printf("Applying migration %v (%v)\n", version, migration.Name())

			if err := applyMigration(ctx, conn, migration.Up, version); err != nil {
				return oops.New(err, "migration %v failed", version)
			}
		}
	} else if currentIndex > targetIndex {
		// roll back
		for i := currentIndex; i > targetIndex; i-- {
			version := allVersions[i]
			previousVersion := types.MigrationVersion{}
			if i > 0 {
				previousVersion = allVersions[i-1]
			}

			fmt.Printf("Rolling back migration %v\n", version)
			if err := applyMigration(ctx, conn, migrations.All[version].Down, previousVersion); err != nil {
				return oops.New(err, "rollback of %v failed", version)
			}
		}
	} else {
		fmt.Println("Already migrated; nothing to do.")
	}
	return nil
}

// migrationIndexes finds current and target in versions. The zero version,
// meaning no migrations have run, has index -1.
func migrationIndexes(versions []types.MigrationVersion, current, target types.MigrationVersion) (int, int, error) {
	currentIndex := -1
	targetIndex := -1
	for i, version := range versions {
		if current.Equal(version) {
			currentIndex = i
		}
		if target.Equal(version) {
			targetIndex = i
		}
	}

	if currentIndex < 0 && !current.IsZero() {
		return 0, 0, fmt.Errorf("database is at unknown migration %v", current)
	}
	if targetIndex < 0 {
		return 0, 0, fmt.Errorf("could not find migration with version %v", target)
	}
	return currentIndex, targetIndex, nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, step func(ctx context.Context, tx pgx.Tx) error, newVersion types.MigrationVersion) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if err := step(ctx, tx); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, "UPDATE board_migration SET version = $1", time.Time(newVersion))
	if err != nil {
		return oops.New(err, "failed to update version in migrations table")
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.New(err, "failed to commit transaction")
	}
	return nil
}

//go:embed migrationTemplate.txt
var migrationTemplate string

func renderMigration(name, description string, now time.Time) (filename string, source string) {
	result := migrationTemplate
	result = strings.ReplaceAll(result, "%NAME%", name)
	result = strings.ReplaceAll(result, "%DESCRIPTION%", fmt.Sprintf("%#v", description))

	nowConstructor := fmt.Sprintf("time.Date(%d, %d, %d, %d, %d, %d, 0, time.UTC)", now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second())
	result = strings.ReplaceAll(result, "%DATE%", nowConstructor)

	safeVersion := strings.ReplaceAll(types.MigrationVersion(now).String(), ":", "")
	return fmt.Sprintf("%v_%v.go", safeVersion, name), result
}

func MakeMigration(name, description string) {
	filename, source := renderMigration(name, description, time.Now().UTC())
	path := filepath.Join("src", "migration", "migrations", filename)

	err := os.WriteFile(path, []byte(source), 0644)
	if err != nil {
		panic(fmt.Errorf("failed to write migration file: %w", err))
	}

	fmt.Println("Successfully created migration file:")
	fmt.Println(path)
}

// SampleSeed migrates to the latest version and adds numPosts lorem ipsum
// posts. Every seeded post and comment uses devserver.SeedPassword.
func SampleSeed(ctx context.Context, numPosts int) error {
	conn, err := db.NewConn(ctx)
	if err != nil {
		return err
	}
	err = Migrate(ctx, conn, LatestVersion())
	conn.Close(ctx)
	if err != nil {
		return err
	}

	pool, err := db.NewConnPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Printf("Seeding %d posts (password %q)...\n", numPosts, devserver.SeedPassword)
	if err := devserver.Seed(ctx, devserver.NewPostgresStore(pool), numPosts); err != nil {
		return err
	}
	fmt.Println("Done!")
	return nil
}
