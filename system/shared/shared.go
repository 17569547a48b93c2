package shared

// AppName identifies this program in logs and desktop notifications
const AppName = "G15Manager"

// Repo is the GitHub repository checked for new releases
const Repo = "g15tools/G15Manager"
