// Command genesis-ping is a minimal connectivity check against a
// station's announced address:port.
//
// spec.md §9 notes the original ping utility's rover/base selector
// flags are dead code with no observable effect on its behavior; this
// rebuild drops them and keeps only what the name promises: dial the
// address, report whether the connection succeeded.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"
)

func main() {
	addr := flag.String("address", "", "station address:port to dial")
	timeout := flag.Duration("timeout", 3*time.Second, "dial timeout")
	flag.Parse()

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "genesis-ping: -address is required")
		os.Exit(2)
	}

	conn, err := net.DialTimeout("tcp", *addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genesis-ping: %s: unreachable: %v\n", *addr, err)
		os.Exit(1)
	}
	conn.Close()
	fmt.Printf("genesis-ping: %s: reachable\n", *addr)
}
