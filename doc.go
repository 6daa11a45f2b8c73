/*
Hashchaind is a peer-to-peer node that keeps a hash-linked chain of
proof-of-work blocks, each carrying a fixed size payload.

Peers exchange blocks over a gRPC stream. On connecting, both sides send their
whole chain, and every block written locally is broadcast to all peers. The
longest known chain wins, and ties are broken by the greater block hash.

Usage:

	hashchaind [OPTIONS]

For an up-to-date help message:

	hashchaind --help

The long form of all option flags (except -C) can be specified in a
configuration file that is automatically parsed when hashchaind starts up. By
default, the configuration file is located at ~/.hashchaind/hashchaind.conf on
POSIX-style operating systems and %LOCALAPPDATA%\hashchaind\hashchaind.conf on
Windows. The -C (--configfile) flag can be used to override this location.

Unless --noconsole is given, commands are read from stdin. Type help for the
list of commands.
*/
package main
