package ports

// topPorts ranks the 100 most commonly open TCP ports, most common first.
// Used only when a "top N ports" scan is requested.
var topPorts = []uint16{
	80, 23, 443, 21, 22, 25, 3389, 110, 445, 139,
	143, 53, 135, 3306, 8080, 1723, 111, 995, 993, 5900,
	1025, 587, 8888, 199, 1720, 465, 548, 113, 81, 6001,
	10000, 514, 5060, 179, 1026, 2000, 8443, 8000, 32768, 554,
	26, 1433, 49152, 2001, 515, 8008, 49154, 1027, 5666, 646,
	5000, 5631, 631, 49153, 8081, 2049, 88, 79, 5800, 106,
	2121, 1110, 49155, 6000, 513, 990, 5357, 427, 49156, 543,
	544, 5101, 144, 7, 389, 8009, 3128, 444, 9999, 5009,
	7070, 5190, 3000, 5432, 1900, 3986, 13, 1029, 9, 5051,
	6646, 49157, 1028, 873, 1755, 2717, 4899, 9100, 119, 37,
}

// tcpServices maps well-known TCP ports to service names.
var tcpServices = map[uint16]string{
	7:    "echo",
	13:   "daytime",
	20:   "ftp-data",
	21:   "ftp",
	22:   "ssh",
	23:   "telnet",
	25:   "smtp",
	37:   "time",
	53:   "domain",
	79:   "finger",
	80:   "http",
	88:   "kerberos",
	106:  "pop3pw",
	110:  "pop3",
	111:  "rpcbind",
	113:  "ident",
	119:  "nntp",
	135:  "msrpc",
	139:  "netbios-ssn",
	143:  "imap",
	179:  "bgp",
	199:  "smux",
	389:  "ldap",
	427:  "svrloc",
	443:  "https",
	445:  "microsoft-ds",
	465:  "smtps",
	513:  "login",
	514:  "shell",
	515:  "printer",
	543:  "klogin",
	544:  "kshell",
	548:  "afp",
	554:  "rtsp",
	587:  "submission",
	631:  "ipp",
	646:  "ldp",
	873:  "rsync",
	990:  "ftps",
	993:  "imaps",
	995:  "pop3s",
	1025: "NFS-or-IIS",
	1433: "ms-sql-s",
	1720: "h323q931",
	1723: "pptp",
	2049: "nfs",
	2121: "ccproxy-ftp",
	3000: "ppp",
	3128: "squid-http",
	3306: "mysql",
	3389: "ms-wbt-server",
	5000: "upnp",
	5060: "sip",
	5432: "postgresql",
	5631: "pcanywheredata",
	5666: "nrpe",
	5800: "vnc-http",
	5900: "vnc",
	6000: "x11",
	6379: "redis",
	8000: "http-alt",
	8008: "http",
	8009: "ajp13",
	8080: "http-proxy",
	8081: "blackice-icecap",
	8443: "https-alt",
	8888: "sun-answerbook",
	9100: "jetdirect",
	9999: "abyss",
	10000: "snet-sensor-mgmt",
	27017: "mongod",
}

// udpServices maps well-known UDP ports to service names.
var udpServices = map[uint16]string{
	53:   "domain",
	67:   "dhcps",
	68:   "dhcpc",
	69:   "tftp",
	123:  "ntp",
	137:  "netbios-ns",
	138:  "netbios-dgm",
	161:  "snmp",
	162:  "snmptrap",
	500:  "isakmp",
	514:  "syslog",
	520:  "route",
	1701: "l2tp",
	1900: "upnp",
	4500: "nat-t-ike",
	5353: "mdns",
}

// ServiceName returns the well-known service name for a port and protocol,
// or empty when the port has no entry in the reference table.
func ServiceName(port uint16, protocol string) string {
	if protocol == "udp" {
		return udpServices[port]
	}
	return tcpServices[port]
}
