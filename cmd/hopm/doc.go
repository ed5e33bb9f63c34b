// Command hopm starts the daemon and offers a few offline utilities.
//
//	hopm [-c name] [-d ...]   start the daemon
//	hopm plan                 show the sandbox footprint of a start
//	hopm config init|validate manage the configuration file
//	hopm signal restart|reopen|stop
//	hopm status               report whether the daemon is running
//	hopm version              print the build version
package main
