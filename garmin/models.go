package garmin

// Garmin Connect returns far more fields than these; only the ones surfaced
// to sensor consumers are kept and everything else is ignored on unmarshal.
// Optional fields are pointers so that "not yet aggregated" (null) can be
// told apart from zero.

type UserProfile struct {
	ID              int     `json:"id"`
	DisplayName     string  `json:"displayName"`
	FullName        string  `json:"fullName"`
	ProfileImageURL *string `json:"profileImageUrlMedium"`
}

type UserSummary struct {
	TotalSteps            *int     `json:"totalSteps"`
	TotalDistanceMeters   *float64 `json:"totalDistanceMeters"`
	ActiveCalories        *int     `json:"activeKilocalories"`
	HighlyActiveSeconds   *int     `json:"highlyActiveSeconds"`
	SedentarySeconds      *int     `json:"sedentarySeconds"`
	FloorsAscended        *int     `json:"floorsAscended"`
	FloorsDescended       *int     `json:"floorsDescended"`
	MinHeartRate          *int     `json:"minHeartRate"`
	MaxHeartRate          *int     `json:"maxHeartRate"`
	RestingHeartRate      *int     `json:"restingHeartRate"`
	AvgStressLevel        *int     `json:"averageStressLevel"`
	MaxStressLevel        *int     `json:"maxStressLevel"`
	BodyBatteryCharged    *int     `json:"bodyBatteryChargedValue"`
	BodyBatteryDrained    *int     `json:"bodyBatteryDrainedValue"`
	BodyBatteryMostRecent *int     `json:"bodyBatteryMostRecentValue"`
}

type Activity struct {
	ActivityID     int64          `json:"activityId"`
	ActivityName   string         `json:"activityName"`
	ActivityType   map[string]any `json:"activityType"`
	StartTimeLocal string         `json:"startTimeLocal"`
	Distance       *float64       `json:"distance"`
	Duration       *float64       `json:"duration"`
	AverageHR      *float64       `json:"averageHR"`
	MaxHR          *float64       `json:"maxHR"`
	Calories       *float64       `json:"calories"`
}

type BodyBattery struct {
	Timestamp *string `json:"startTimestampGMT"`
	Charged   *int    `json:"charged"`
	Drained   *int    `json:"drained"`
	Level     *int    `json:"bodyBatteryLevel"`
}

type SleepData struct {
	SleepStart        *string `json:"sleepStartTimestampGMT"`
	SleepEnd          *string `json:"sleepEndTimestampGMT"`
	TotalSleepSeconds *int    `json:"sleepTimeSeconds"`
	DeepSleepSeconds  *int    `json:"deepSleepSeconds"`
	LightSleepSeconds *int    `json:"lightSleepSeconds"`
	RemSleepSeconds   *int    `json:"remSleepSeconds"`
	AwakeSeconds      *int    `json:"awakeSleepSeconds"`
}

type StressData struct {
	OverallStressLevel     *int `json:"overallStressLevel"`
	RestStressDuration     *int `json:"restStressDuration"`
	ActivityStressDuration *int `json:"activityStressDuration"`
	LowStressDuration      *int `json:"lowStressDuration"`
	MediumStressDuration   *int `json:"mediumStressDuration"`
	HighStressDuration     *int `json:"highStressDuration"`
}

type HRVData struct {
	HRVValue         *int    `json:"hrvValue"`
	BaselineLow      *int    `json:"baselineLowUpper"`
	BaselineBalanced *int    `json:"baselineBalancedLower"`
	Status           *string `json:"status"`
}

type TrainingReadiness struct {
	CalendarDate  string  `json:"calendarDate"`
	Score         *int    `json:"score"`
	Level         *string `json:"level"`
	FeedbackShort *string `json:"feedbackShort"`
}

type Device struct {
	DeviceID       *int64  `json:"deviceId"`
	DisplayName    *string `json:"displayName"`
	DeviceTypeName *string `json:"deviceTypeName"`
	BatteryLevel   *int    `json:"batteryLevel"`
	BatteryStatus  *string `json:"batteryStatus"`
}
