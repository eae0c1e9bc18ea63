package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wardle/hiservice/hiservice"
	"github.com/wardle/hiservice/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts a REST server",
	Long: `Starts a REST server providing IHI search and reference data.

Requests are authenticated using RS256 bearer tokens when a key is configured.
Tokens are either issued by a third party (--jwt-public-key), or by this server
to the service accounts listed in the configuration file (--jwt-private-key).`,
	Run: func(cmd *cobra.Command, args []string) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		cfg, err := configFromViper()
		if err != nil {
			log.Fatal(err)
		}
		app := newAppFromConfig(cfg, hiservice.WithMetrics(hiservice.NewMetrics(reg)))
		app.RegisterResolvers()
		auth, err := authFromViper()
		if err != nil {
			log.Fatal(err)
		}
		sv := server.New(app, server.Options{
			Auth:           auth,
			Gatherer:       reg,
			AllowedOrigins: viper.GetStringSlice("allowed-origins"),
		})
		url := cfg.EndpointURL
		if url == "" {
			url = cfg.Endpoint.URL()
		}
		port := viper.GetInt("port")
		log.Printf("starting REST server: port:%d cache:%s timeout:%s endpoint:(%s)%s fake:%v auth:%v",
			port, cfg.CacheExpiry, cfg.Timeout, cfg.Endpoint.Name(), url, cfg.Fake, auth != nil)
		if err := server.Run(context.Background(), fmt.Sprintf(":%d", port), sv.Handler()); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.PersistentFlags().Int("port", 8080, "Port to run HTTP server")
	viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))
	serveCmd.PersistentFlags().String("jwt-public-key", "", "Public key (PEM) to verify tokens issued by a third party")
	viper.BindPFlag("jwt-public-key", serveCmd.PersistentFlags().Lookup("jwt-public-key"))
	serveCmd.PersistentFlags().String("jwt-private-key", "", "Private key (PEM) to issue tokens to service accounts")
	viper.BindPFlag("jwt-private-key", serveCmd.PersistentFlags().Lookup("jwt-private-key"))
	serveCmd.PersistentFlags().Int("token-minutes", 5, "Validity of issued tokens in minutes")
	viper.BindPFlag("token-minutes", serveCmd.PersistentFlags().Lookup("token-minutes"))
	serveCmd.PersistentFlags().StringSlice("allowed-origins", nil, "Origins permitted for cross-origin requests (default all)")
	viper.BindPFlag("allowed-origins", serveCmd.PersistentFlags().Lookup("allowed-origins"))
}

// authFromViper configures authentication, returning nil if no keys or service accounts are configured
func authFromViper() (*server.Auth, error) {
	accounts := viper.GetStringMapString("service-accounts")
	var auth *server.Auth
	var err error
	switch {
	case viper.GetString("jwt-private-key") != "":
		auth, err = server.NewAuthenticationServer(viper.GetString("jwt-private-key"))
	case viper.GetString("jwt-public-key") != "":
		auth, err = server.NewAuthenticator(viper.GetString("jwt-public-key"))
	case len(accounts) > 0:
		log.Printf("serve: no private key specified; issuing tokens using a temporary key")
		auth, err = server.NewAuthenticationServerWithTemporaryKey()
	default:
		log.Printf("serve: warning: authentication is switched off")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if minutes := viper.GetInt("token-minutes"); minutes > 0 {
		auth.TokenDuration = time.Duration(minutes) * time.Minute
	}
	if !auth.CanIssueTokens() && len(accounts) > 0 {
		log.Printf("serve: warning: service accounts ignored as tokens are issued by a third party")
		return auth, nil
	}
	for username, hash := range accounts {
		auth.RegisterServiceAccount(username, hash)
	}
	return auth, nil
}
