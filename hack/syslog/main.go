// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	// Import all supported provider implementations.
	_ "github.com/ironcore-dev/bmc-operator/internal/provider/dell/idrac"

	"github.com/ironcore-dev/bmc-operator/api/v1alpha1"
	"github.com/ironcore-dev/bmc-operator/internal/bmcutil"
	"github.com/ironcore-dev/bmc-operator/internal/provider"
)

var (
	address       = flag.String("address", "", "Management controller address, an IP address or hostname (required)")
	port          = flag.Int("port", 443, "Management controller HTTPS port")
	username      = flag.String("username", "", "Username for authentication (required)")
	password      = flag.String("password", "", "Password for authentication (required)")
	shareName     = flag.String("share-name", "", "Staging share path: 'host:/path' for NFS, '\\\\host\\share' for CIFS or a local directory (required)")
	shareUser     = flag.String("share-user", "", "Username for the staging share, required for CIFS shares")
	sharePassword = flag.String("share-password", "", "Password for the staging share")
	shareMnt      = flag.String("share-mnt", "", "Local mount path of the staging share, required for network shares")
	syslogState   = flag.String("syslog-state", "Enabled", "Desired state of the syslog forwarding feature: Enabled or Disabled")
	checkMode     = flag.Bool("check-mode", false, "Preview the change without applying it")
	providerName  = flag.String("provider", "dell-idrac-redfish", "Provider implementation to use")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "A debug tool for toggling syslog forwarding on a management controller.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExample:\n")
	fmt.Fprintf(os.Stderr, "  %s -address=192.168.1.1 -username=root -password=calvin -share-name=192.168.0.2:/share -share-mnt=/mnt/share -syslog-state=Enabled\n", os.Args[0])
}

func validateFlags() error {
	if *address == "" {
		return errors.New("address flag is required")
	}
	if *username == "" {
		return errors.New("username flag is required")
	}
	if *password == "" {
		return errors.New("password flag is required")
	}
	if *shareName == "" {
		return errors.New("share-name flag is required")
	}
	state := v1alpha1.SyslogState(*syslogState)
	if state != v1alpha1.SyslogStateEnabled && state != v1alpha1.SyslogStateDisabled {
		return fmt.Errorf("syslog-state must be either %q or %q, got: %s", v1alpha1.SyslogStateEnabled, v1alpha1.SyslogStateDisabled, *syslogState)
	}
	return nil
}

// reportFailure prints the classified failure and returns the process exit
// code. An unreachable controller is reported like an apply result and does
// not fail the run, matching how the operator treats it as transient. HTTP
// errors additionally print the controller's decoded error body.
func reportFailure(err error) int {
	var httpErr *provider.HTTPError
	switch {
	case provider.IsUnreachable(err):
		out, _ := yaml.Marshal(map[string]any{
			"unreachable": true,
			"message":     err.Error(),
		})
		fmt.Printf("\n=== Apply Result ===\n%s", out)
		return 0

	case errors.As(err, &httpErr):
		fmt.Fprintf(os.Stderr, "Error: %v\n", httpErr)
		if info := httpErr.Info(); info != nil {
			out, _ := yaml.Marshal(info)
			fmt.Fprintf(os.Stderr, "%s", out)
		}
		return 1

	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func main() {
	flag.Usage = usage

	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "--help" {
			flag.Usage()
			os.Exit(0)
		}
	}

	flag.Parse()

	if err := validateFlags(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run())
}

func run() int {
	prov, err := provider.Get(*providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting provider: %v\n", err)
		return 1
	}

	syslogProv, ok := prov().(provider.SyslogProvider)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: provider %q does not support syslog forwarding\n", *providerName)
		return 1
	}

	forwarding := &v1alpha1.SyslogForwarding{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "debug-syslog",
			Namespace: metav1.NamespaceDefault,
		},
		Spec: v1alpha1.SyslogForwardingSpec{
			BMCRef: v1alpha1.LocalObjectReference{Name: "debug-bmc"},
			State:  v1alpha1.SyslogState(*syslogState),
			Share: v1alpha1.NetworkShare{
				Path:       *shareName,
				MountPoint: *shareMnt,
			},
		},
	}

	conn := &bmcutil.Connection{
		Endpoint:           fmt.Sprintf("https://%s", net.JoinHostPort(*address, strconv.Itoa(*port))),
		Username:           *username,
		Password:           *password,
		InsecureSkipVerify: true,
	}

	ctx := context.Background()

	fmt.Printf("=== Debug Tool Configuration ===\n")
	fmt.Printf("Address: %s\n", conn.Endpoint)
	fmt.Printf("Username: %s\n", *username)
	fmt.Printf("Password: %s\n", "[REDACTED]")
	fmt.Printf("Share: %s (%s)\n", *shareName, forwarding.Spec.Share.Kind())
	fmt.Printf("State: %s\n", *syslogState)
	fmt.Printf("Check mode: %t\n", *checkMode)
	fmt.Printf("Provider: %s\n", *providerName)

	if err := syslogProv.Connect(ctx, conn); err != nil {
		return reportFailure(err)
	}
	defer func() {
		if err := syslogProv.Disconnect(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error disconnecting from controller: %v\n", err)
		}
	}()

	result, err := syslogProv.EnsureSyslogForwarding(ctx, &provider.EnsureSyslogForwardingRequest{
		Forwarding: forwarding,
		Share: provider.Share{
			Kind:       forwarding.Spec.Share.Kind(),
			Path:       *shareName,
			MountPoint: *shareMnt,
			Username:   *shareUser,
			Password:   *sharePassword,
		},
		DryRun: *checkMode,
	})
	if err != nil {
		return reportFailure(err)
	}

	out, err := yaml.Marshal(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return 1
	}

	fmt.Printf("\n=== Apply Result ===\n%s", out)
	return 0
}
