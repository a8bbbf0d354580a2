package constants

import "os"

const (
	DefaultConfigPath = "/etc/dnssync/config.yaml"
	DefaultLockPath   = "/tmp/dnssync.lock"
	DefaultStorePath  = "/var/lib/dnssync/tracking.db"
	DefaultNameserver = "127.0.0.1:53"
)

const (
	DirPermission    os.FileMode = 0755
	FilePermission   os.FileMode = 0644
	SecretPermission os.FileMode = 0600
)

const (
	CPanelAPI   = "whmapi1"
	CPanelUAPI  = "uapi"
	ZoneFileExt = ".db"
)

var DefaultZoneDirs = []string{"/var/named", "/var/named/data"}

// SOA timer policy applied on every correction. Existing zone values are
// never trusted because they may have drifted along with the serial.
const (
	SOATTL     uint32 = 86400
	SOARefresh uint32 = 86400
	SOARetry   uint32 = 7200
	SOAExpire  uint32 = 3600000
	SOAMinimum uint32 = 3600
)

const (
	RemoteZoneKind       = "Native"
	RemoteSOAEditAPI     = "INCEPTION-INCREMENT"
	DNSSECMetadataPrefix = "X-DNSSEC"
)
