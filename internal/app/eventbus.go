package app

const TopicAnalysisCreated = "analysis:created"
const TopicAnalysisAlert = "analysis:alert"
const TopicDeliverySucceeded = "delivery:succeeded"
const TopicDeliveryFailed = "delivery:failed"
