package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/yourusername/vefify-quiz/pkg/database"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  up         применить все миграции
  down [N]   откатить N миграций (по умолчанию одну)
  force V    пометить версию V как чистую (снимает dirty-состояние)
  version    показать текущую версию

Flags:
`

func main() {
	driver := flag.String("driver", envOr("DATABASE_DRIVER", database.DriverPostgres), "postgres | mysql")
	dsn := flag.String("dsn", os.Getenv("DATABASE_DSN"), "строка подключения к БД")
	dir := flag.String("dir", envOr("DATABASE_MIGRATIONS_DIR", "migrations"), "каталог миграций (внутри <dir>/<driver>)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || *dsn == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := sql.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("Не удалось открыть БД: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("БД недоступна: %v", err)
	}

	m, err := database.NewMigrator(db, *driver, *dir)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(m, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(m *migrateV4.Migrate, args []string) error {
	switch args[0] {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		return ignoreNoChange(m.Steps(-steps))
	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
		fmt.Printf("Версия принудительно установлена в %d\n", v)
		return nil
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrateV4.ErrNilVersion) {
			fmt.Println("Миграции не применялись")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrateV4.ErrNoChange) {
		fmt.Println("Изменений нет")
		return nil
	}
	if err == nil {
		fmt.Println("Готово")
	}
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
