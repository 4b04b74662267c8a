package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/med2305/mlops/pkg/tlsutil"
)

func certsCmd() *cobra.Command {
	var hosts []string
	cmd := &cobra.Command{
		Use:   "certs [out-dir]",
		Short: "Generate a self-signed CA and server certificate for local TLS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := tlsutil.GenerateSelfSigned(hosts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GRPC_TLS_CERT_FILE=%s\n", paths.CertFile)
			fmt.Fprintf(out, "GRPC_TLS_KEY_FILE=%s\n", paths.KeyFile)
			fmt.Fprintf(out, "ca: %s\n", paths.CAFile)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&hosts, "hosts", []string{"localhost", "127.0.0.1"}, "DNS names and IPs of the server certificate")

	return cmd
}
