package garmin

const (
	connectAPI = "https://connectapi.garmin.com"
	ssoBase    = "https://sso.garmin.com/sso"

	signinURL   = ssoBase + "/signin"
	mfaCodeURL  = ssoBase + "/verifyMFA/loginEnterMfaCode"
	embedURL    = ssoBase + "/embed"
	preauthURL  = connectAPI + "/oauth-service/oauth/preauthorized"
	exchangeURL = connectAPI + "/oauth-service/oauth/exchange/user/2.0"

	userProfileURL       = connectAPI + "/userprofile-service/socialProfile"
	userSummaryURL       = connectAPI + "/usersummary-service/usersummary/daily"
	activitiesURL        = connectAPI + "/activitylist-service/activities/search/activities"
	activityDetailsURL   = connectAPI + "/activity-service/activity"
	bodyBatteryURL       = connectAPI + "/wellness-service/wellness/bodyBattery"
	hrvURL               = connectAPI + "/hrv-service/hrv"
	sleepURL             = connectAPI + "/wellness-service/wellness/dailySleepData"
	stressURL            = connectAPI + "/wellness-service/wellness/dailyStress"
	trainingReadinessURL = connectAPI + "/metrics-service/metrics/trainingreadiness"
	devicesURL           = connectAPI + "/device-service/deviceregistration/devices"

	// Garmin rejects requests that don't look like the mobile app.
	userAgent = "GCM-iOS-5.7.2.1"
)
