package security

import "regexp"

// Rule pairs a compiled pattern with a human readable description.
// The rule lists below are the security boundary of the whole pipeline:
// they are kept as ordered data so they can be reviewed and tested as a
// unit. The lists mirror the operational policy they were migrated from
// and are a starting point, not a complete threat model (notably sudo,
// su, node -e and environment exfiltration are not yet covered).
type Rule struct {
	Pattern     *regexp.Regexp
	Description string
}

// DangerousPatterns are checked before anything else. First match wins
// and blocks the command regardless of whitelist membership.
var DangerousPatterns = []Rule{
	{regexp.MustCompile(`(?i)\brm\s+(-[a-z]*\s+)*-[a-z]*r[a-z]*\s+`), "recursive file deletion"},
	{regexp.MustCompile(`(?i)\bdd\s+.*\bof=/dev/`), "raw disk write"},
	{regexp.MustCompile(`(?i)\b(mkfs(\.\w+)?|fdisk|parted|diskpart)\b`), "filesystem or partition tool"},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:`), "fork bomb"},
	{regexp.MustCompile(`(?i)>\s*/dev/(sd|hd|nvme|mmcblk)`), "write to block device file"},
	{regexp.MustCompile(`(?i)\bchmod\s+(-[a-z]+\s+)*0?777\b`), "world-writable permission change"},
	{regexp.MustCompile(`(?i)\b(curl|wget)\b[^|]*\|\s*(ba|z|da)?sh\b`), "pipe remote content to shell"},
	{regexp.MustCompile(`(?i)\beval\b`), "code evaluation"},
	{regexp.MustCompile(`\$\(`), "command substitution"},
	{regexp.MustCompile("`"), "backtick command substitution"},
	{regexp.MustCompile(`(?i)>\s*/(etc|boot|sys|proc)/`), "write to system directory"},
	{regexp.MustCompile(`(?i)\bformat\s+[a-z]:`), "windows disk format"},
	{regexp.MustCompile(`(?i)\breg\s+delete\b`), "windows registry delete"},
	{regexp.MustCompile(`(?i)(;|\s)(drop|truncate)\s+(table|database)\b`), "sql drop statement"},
	{regexp.MustCompile(`(?i)'\s*or\s+'1'\s*=\s*'1`), "sql injection fragment"},
}

// WhitelistPatterns are the only command shapes allowed to execute.
// Each is anchored and scoped as narrowly as practical.
var WhitelistPatterns = []Rule{
	{regexp.MustCompile(`^systemctl (restart|stop|start|status) [\w@.-]+(\.service)?$`), "systemctl service management"},
	{regexp.MustCompile(`^journalctl -u [\w@.-]+( -n \d{1,4})?( --no-pager)?$`), "journalctl service logs"},
	{regexp.MustCompile(`^(uname -a|uptime|whoami|hostname|free -h|df -h|ps aux)$`), "fixed system information command"},
	{regexp.MustCompile(`^git (pull|status|log( --oneline)?( -n \d{1,3})?)$`), "git repository operation"},
	{regexp.MustCompile(`^cd [\w./-]+ && git pull$`), "deploy from the bot directory"},
	{regexp.MustCompile(`^cd [\w:\\./-]+; git pull$`), "windows deploy from the bot directory"},
	{regexp.MustCompile(`^npm (install|ci)$`), "npm dependency install"},
	{regexp.MustCompile(`^apt(-get)? (update|upgrade -y|list --upgradable)$`), "apt package management"},
	{regexp.MustCompile(`^brew (update|upgrade|list)$`), "homebrew package management"},
	{regexp.MustCompile(`^winget (upgrade( --all)?|list)$`), "winget package management"},
	{regexp.MustCompile(`^choco (upgrade all -y|list)$`), "chocolatey package management"},
	{regexp.MustCompile(`^shutdown (-h|-r) \+\d{1,3}$`), "delayed shutdown or reboot"},
	{regexp.MustCompile(`^shutdown /(s|r) /t \d{1,5}$`), "windows delayed shutdown or restart"},
	{regexp.MustCompile(`^Get-(Process|Service|EventLog|ComputerInfo|PSDrive)( [\w."'-]+)*$`), "powershell read-only cmdlet"},
	{regexp.MustCompile(`^(Restart|Stop|Start)-Service -Name "?[\w.-]+"?$`), "powershell service management"},
	{regexp.MustCompile(`^launchctl (list|start|stop)( [\w.-]+)?$`), "launchctl service management"},
	{regexp.MustCompile(`^(tail|head) -n \d{1,4} [\w./-]+$`), "bounded log file read"},
	{regexp.MustCompile(`^echo ("[^"]*"|'[^']*'|[\w .,:!?-]*)$`), "echo"},
}

// ApprovalPatterns mark whitelisted commands that still require a human
// confirmation before execution. Whitelist membership does not exempt a
// command from this gate.
var ApprovalPatterns = []Rule{
	{regexp.MustCompile(`^systemctl (restart|stop)\b`), "service restart or stop"},
	{regexp.MustCompile(`^shutdown\b`), "shutdown or reboot"},
	{regexp.MustCompile(`^(Restart|Stop)-Service\b`), "windows service restart or stop"},
	{regexp.MustCompile(`^launchctl (start|stop)\b`), "darwin service restart or stop"},
	{regexp.MustCompile(`(?i)\bupgrade\b`), "package upgrade"},
	{regexp.MustCompile(`\bgit pull\b`), "code update"},
	{regexp.MustCompile(`^npm (install|ci)\b`), "dependency install"},
}
