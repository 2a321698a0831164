package testutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/localnerve/voternet/data"
	"github.com/localnerve/voternet/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// AppImage is the image the voternet container runs. It is built from the Dockerfile
// at BuildContext when missing and kept for later runs.
const AppImage = "voternet-test:latest"

// ContainerOptions configure StartContainers. OptionsFromEnv reads them from the
// same variables the service uses.
type ContainerOptions struct {
	DBImage        string
	DBType         string
	DBAlias        string
	DBPort         string
	DBDatabase     string
	DBAppUser      string
	DBAppPassword  string
	DBRootPassword string

	// Authorizer is skipped when AuthzImage is empty.
	AuthzImage       string
	AuthzPort        string
	AuthzDatabase    string
	AuthzClientID    string
	AuthzAdminSecret string

	// The voternet container is only started when StartApp is set.
	StartApp     bool
	AppPort      string
	BuildContext string
}

// OptionsFromEnv reads ContainerOptions from the environment.
func OptionsFromEnv() ContainerOptions {
	opts := ContainerOptions{
		DBImage:          os.Getenv("DB_IMAGE"),
		DBType:           envOr("DB_TYPE", "mariadb"),
		DBAlias:          envOr("DB_HOST", "db"),
		DBPort:           envOr("DB_PORT", "3306"),
		DBDatabase:       envOr("DB_DATABASE", "voternet"),
		DBAppUser:        envOr("DB_APP_USER", "voternet"),
		DBAppPassword:    envOr("DB_APP_PASSWORD", "voternet"),
		DBRootPassword:   envOr("DB_ROOT_PASSWORD", "root"),
		AuthzImage:       os.Getenv("AUTHZ_IMAGE"),
		AuthzPort:        envOr("AUTHZ_PORT", "8080"),
		AuthzDatabase:    envOr("AUTHZ_DATABASE", "authorizer"),
		AuthzClientID:    os.Getenv("AUTHZ_CLIENT_ID"),
		AuthzAdminSecret: os.Getenv("AUTHZ_ADMIN_SECRET"),
		StartApp:         os.Getenv("START_APP") == "true",
		AppPort:          envOr("PORT", "3000"),
		BuildContext:     envOr("TESTCONTAINERS_BUILD_CONTEXT", "."),
	}
	return opts
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Containers is a running integration environment.
type Containers struct {
	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	Authorizer testcontainers.Container
	App        testcontainers.Container

	opts     ContainerOptions
	dbHost   string
	dbPort   string
	AuthzURL string
	AppURL   string
}

// StartContainers starts MariaDB, initializes the voternet schema and optionally starts
// Authorizer and the voternet service. On error everything started so far is terminated.
func StartContainers(ctx context.Context, opts ContainerOptions, logf func(format string, args ...any)) (*Containers, error) {
	if opts.DBImage == "" {
		return nil, errors.New("DB_IMAGE is not set")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	tc := &Containers{opts: opts}
	fail := func(err error) (*Containers, error) {
		if terr := tc.Terminate(context.Background()); terr != nil {
			logf("terminate after failure: %v", terr)
		}
		return nil, err
	}

	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	tc.Network = nw

	if err := tc.startDB(ctx); err != nil {
		return fail(err)
	}
	logf("DB_HOST=%s DB_PORT=%s", tc.dbHost, tc.dbPort)

	if opts.AuthzImage != "" {
		if err := tc.startAuthorizer(ctx); err != nil {
			return fail(err)
		}
		logf("AUTHZ_URL=%s", tc.AuthzURL)
	}

	if opts.StartApp {
		if err := tc.startApp(ctx, logf); err != nil {
			return fail(err)
		}
		logf("BASE_URL=%s", tc.AppURL)
	}
	return tc, nil
}

// Config points a voternet config at the containerized database from the host.
func (tc *Containers) Config() *config.Config {
	return &config.Config{
		DBType:               "mysql",
		DBHost:               tc.dbHost,
		DBPort:               tc.dbPort,
		DBDatabase:           tc.opts.DBDatabase,
		DBAppUser:            tc.opts.DBAppUser,
		DBAppPassword:        tc.opts.DBAppPassword,
		DBAppConnectionLimit: 5,
		Timezone:             "Asia/Kolkata",
		LogLevel:             "warn",
		AuthzURL:             tc.AuthzURL,
		AuthzClientID:        tc.opts.AuthzClientID,
	}
}

// Terminate stops every container and removes the network.
func (tc *Containers) Terminate(ctx context.Context) error {
	var errs []error
	for _, c := range []testcontainers.Container{tc.App, tc.Authorizer, tc.DB} {
		if c != nil {
			errs = append(errs, c.Terminate(ctx))
		}
	}
	if tc.Network != nil {
		errs = append(errs, tc.Network.Remove(ctx))
	}
	return errors.Join(errs...)
}

func (tc *Containers) startDB(ctx context.Context) error {
	opts := tc.opts
	port, err := nat.NewPort("tcp", opts.DBPort)
	if err != nil {
		return fmt.Errorf("db port: %w", err)
	}

	tc.DB, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.DBImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": opts.DBRootPassword,
				"MYSQL_DATABASE":      opts.DBDatabase,
				"MYSQL_USER":          opts.DBAppUser,
				"MYSQL_PASSWORD":      opts.DBAppPassword,
			},
			WaitingFor:     wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second),
			Networks:       []string{tc.Network.Name},
			NetworkAliases: map[string][]string{tc.Network.Name: {opts.DBAlias}},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start database: %w", err)
	}

	if tc.dbHost, err = tc.DB.Host(ctx); err != nil {
		return err
	}
	mapped, err := tc.DB.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	tc.dbPort = mapped.Port()

	return tc.initMariaDB(ctx)
}

func (tc *Containers) initMariaDB(ctx context.Context) error {
	opts := tc.opts
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", opts.DBRootPassword, tc.dbHost, tc.dbPort))
	if err != nil {
		return fmt.Errorf("connect to database for setup: %w", err)
	}
	defer db.Close()

	// the port listens before the server accepts logins
	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("database not ready after 30 seconds: %w", err)
	}

	setup := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", opts.DBDatabase),
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", opts.AuthzDatabase),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'", opts.DBAppUser, opts.DBAppPassword),
	}
	vars := map[string]string{"DB_DATABASE": opts.DBDatabase, "DB_APP_USER": opts.DBAppUser}
	expand := func(script string) []string {
		return SplitSQL(os.Expand(script, func(k string) string { return vars[k] }))
	}
	setup = append(setup, expand(data.InitdbMariaDBTables)...)
	setup = append(setup, expand(data.InitdbMariaDBPrivileges)...)

	for _, q := range setup {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: when executing > %s", err, q)
		}
	}
	return nil
}

func (tc *Containers) startAuthorizer(ctx context.Context) error {
	opts := tc.opts
	port, err := nat.NewPort("tcp", opts.AuthzPort)
	if err != nil {
		return fmt.Errorf("authorizer port: %w", err)
	}

	dsn := fmt.Sprintf("root:%s@tcp(%s:%s)/%s", opts.DBRootPassword, opts.DBAlias, opts.DBPort, opts.AuthzDatabase)
	tc.Authorizer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.AuthzImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     opts.AuthzClientID,
				"PORT":          opts.AuthzPort,
				"DATABASE_TYPE": "mariadb",
				"DATABASE_NAME": opts.AuthzDatabase,
				"DATABASE_URL":  dsn,
				"ADMIN_SECRET":  opts.AuthzAdminSecret,
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
			},
			WaitingFor:     wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:       []string{tc.Network.Name},
			NetworkAliases: map[string][]string{tc.Network.Name: {"authorizer"}},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start authorizer: %w", err)
	}

	host, err := tc.Authorizer.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := tc.Authorizer.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	tc.AuthzURL = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	return nil
}

func (tc *Containers) startApp(ctx context.Context, logf func(string, ...any)) error {
	opts := tc.opts
	port, err := nat.NewPort("tcp", opts.AppPort)
	if err != nil {
		return fmt.Errorf("app port: %w", err)
	}

	req := testcontainers.ContainerRequest{
		ExposedPorts: []string{string(port)},
		Env: map[string]string{
			"DB_TYPE":         "mysql",
			"DB_HOST":         opts.DBAlias,
			"DB_PORT":         opts.DBPort,
			"DB_DATABASE":     opts.DBDatabase,
			"DB_APP_USER":     opts.DBAppUser,
			"DB_APP_PASSWORD": opts.DBAppPassword,
			"DB_AUTO_MIGRATE": "false",
			"AUTHZ_CLIENT_ID": opts.AuthzClientID,
			"DEBUG_MAIL":      "true",
			"PORT":            opts.AppPort,
		},
		WaitingFor: wait.ForHTTP("/metrics").WithPort(port).WithStartupTimeout(60 * time.Second),
		Networks:   []string{tc.Network.Name},
	}
	if tc.Authorizer != nil {
		req.Env["AUTHZ_URL"] = "http://authorizer:" + opts.AuthzPort
	}

	exists, err := imageExists(ctx, AppImage)
	if err != nil {
		return fmt.Errorf("check image %s: %w", AppImage, err)
	}
	if exists {
		logf("Image %s exists, reusing...", AppImage)
		req.Image = AppImage
	} else {
		logf("Image %s does not exist, building...", AppImage)
		sessionID := uuid.NewString()
		args := map[string]*string{"RESOURCE_REAPER_SESSION_ID": &sessionID}
		repo, tag, _ := strings.Cut(AppImage, ":")
		req.FromDockerfile = testcontainers.FromDockerfile{
			Context:    opts.BuildContext,
			Dockerfile: "Dockerfile",
			Repo:       repo,
			Tag:        tag,
			KeepImage:  true,
			BuildArgs:  args,
			BuildOptionsModifier: func(o *build.ImageBuildOptions) {
				o.Target = "runtime"
			},
			PrintBuildLog: true,
		}
	}

	tc.App, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("start voternet: %w", err)
	}

	host, err := tc.App.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := tc.App.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	tc.AppURL = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	return nil
}

// SplitSQL splits a script into statements on semicolons, dropping "--" comments.
// Quoted text and backquoted identifiers are kept intact.
func SplitSQL(script string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			cur.WriteRune(' ')
			continue
		case r == ';':
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

func imageExists(ctx context.Context, name string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == name {
				return true, nil
			}
		}
	}
	return false, nil
}
