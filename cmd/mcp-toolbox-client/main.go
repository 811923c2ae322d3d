// Command mcp-toolbox-client runs a smoke script against an MCP server: it
// lists the tools and exercises each one. It talks to a remote server over SSE
// by default or over the REST endpoints with -rest, and to a local server
// started as a subprocess with -stdio.
package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcp-toolbox/internal/client"
)

func main() {
	_ = godotenv.Load()

	url := flag.String("url", envOr("REMOTE_SERVER_URL", "http://localhost:3000"), "server base URL")
	token := flag.String("token", envOr("MCP_TOKEN", os.Getenv("API_KEY")), "bearer token")
	rest := flag.Bool("rest", false, "use the REST endpoints instead of an MCP session over SSE")
	stdio := flag.String("stdio", "", "command line of a local stdio server to run instead of connecting to -url")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	c := client.New(*url, *token, nil)
	var (
		tc  toolCaller
		err error
	)
	switch {
	case *stdio != "":
		args := strings.Fields(*stdio)
		tc, err = dialStdio(ctx, exec.Command(args[0], args[1:]...))
	case *rest:
		tc = restCaller{c: c}
	default:
		tc, err = dialSSE(ctx, c)
	}
	if err != nil {
		color.Red("connect: %v", err)
		os.Exit(1)
	}
	defer tc.Close()

	failures := runScript(ctx, tc, color.Output)
	if failures > 0 {
		color.Red("\n%d step(s) failed", failures)
		os.Exit(1)
	}
	color.Green("\nall steps passed")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// toolCaller is the part of a session the script needs.
type toolCaller interface {
	ListTools(ctx context.Context) ([]string, error)
	Call(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error)
	Close() error
}

var impl = &mcp.Implementation{Name: "mcp-toolbox-client", Version: "1.0.0"}

// sessionCaller drives an MCP session, whatever its transport.
type sessionCaller struct {
	cs *mcp.ClientSession
}

func dialSSE(ctx context.Context, c *client.Client) (*sessionCaller, error) {
	cs, err := c.ConnectSSE(ctx, impl)
	if err != nil {
		return nil, err
	}
	return &sessionCaller{cs: cs}, nil
}

// dialStdio starts cmd and speaks MCP over its stdin/stdout. The process is
// stopped when the session closes.
func dialStdio(ctx context.Context, cmd *exec.Cmd) (*sessionCaller, error) {
	cmd.Stderr = os.Stderr
	cs, err := mcp.NewClient(impl, nil).Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, err
	}
	return &sessionCaller{cs: cs}, nil
}

func (s *sessionCaller) ListTools(ctx context.Context) ([]string, error) {
	res, err := s.cs.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Tools))
	for _, t := range res.Tools {
		names = append(names, t.Name)
	}
	return names, nil
}

func (s *sessionCaller) Call(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	res, err := s.cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", false, err
	}
	var text string
	if len(res.Content) > 0 {
		if tc, ok := res.Content[0].(*mcp.TextContent); ok {
			text = tc.Text
		}
	}
	return text, res.IsError, nil
}

func (s *sessionCaller) Close() error { return s.cs.Close() }

type restCaller struct {
	c *client.Client
}

func (r restCaller) ListTools(ctx context.Context) ([]string, error) {
	list, err := r.c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, d := range list {
		names = append(names, d.Name)
	}
	return names, nil
}

func (r restCaller) Call(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	resp, err := r.c.CallTool(ctx, name, args)
	if err != nil {
		return "", false, err
	}
	return resp.Text(), resp.IsError, nil
}

func (restCaller) Close() error { return nil }
