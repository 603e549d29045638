package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/picontrol/panelctl/pkg/panelctl/client"
	"github.com/picontrol/panelctl/pkg/panelctl/config"
	"github.com/picontrol/panelctl/pkg/panelctl/session"
)

func buildClient(rt *runtimeState) (*client.Client, error) {
	var ctxCfg *config.Context
	if rt.serverOverride == "" {
		if err := rt.EnsureConfigLoaded(); err != nil {
			return nil, err
		}
		resolved, err := rt.ResolveContext()
		if err != nil {
			return nil, err
		}
		ctxCfg = resolved
	}

	server := rt.resolveServer(ctxCfg)
	if server == "" {
		return nil, errors.New("server is required")
	}

	options := []client.Option{
		client.WithServer(server),
		client.WithUserAgent("panelctl"),
		client.WithSessionExpiredHandler(func() {
			_, _ = fmt.Fprintln(os.Stderr, "Session expired; run 'panelctl auth login'")
		}),
	}
	if rt.tokenOverride != "" {
		options = append(options, client.WithToken(rt.tokenOverride))
	} else {
		options = append(options, client.WithTokenStore(buildStore(rt, ctxCfg)))
	}
	if rt.cfg != nil && rt.cfg.Settings.Timeout != "" {
		if timeout, parseErr := time.ParseDuration(rt.cfg.Settings.Timeout); parseErr == nil {
			options = append(options, client.WithTimeout(timeout))
		}
	}
	caFile := ""
	insecure := false
	if ctxCfg != nil {
		caFile = ctxCfg.CAFile
		insecure = ctxCfg.InsecureSkipTLSVerify
	}
	options = append(options, client.WithTLSConfig(caFile, insecure))
	if rt.verbose {
		options = append(options, client.WithVerbose(rt.logf))
	}
	return client.New(options...)
}

func buildStore(rt *runtimeState, ctxCfg *config.Context) session.Store {
	key := rt.contextKey(ctxCfg)
	if rt.TokenStorage(ctxCfg) == config.TokenStorageKeychain {
		return &session.KeyringStore{Service: "panelctl", Context: key}
	}
	return &session.FileStore{Path: config.DefaultTokenPath(), Context: key}
}
