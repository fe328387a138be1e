package i18n

var tables = map[string]map[string]string{
	English: {
		"dashboard":               "Dashboard",
		"documents":               "Documents",
		"myDocuments":             "My Documents",
		"uploadDocument":          "Upload Document",
		"draftDocuments":          "Draft Documents",
		"courses":                 "Courses",
		"feedback":                "Feedback",
		"settings":                "Settings",
		"logout":                  "Logout",
		"login":                   "Login",
		"welcome":                 "Welcome to HashDoc",
		"studentLogin":            "Student Login",
		"adminLogin":              "Admin Login",
		"universityId":            "University ID",
		"password":                "Password",
		"loginButton":             "Login",
		"errorInvalidCredentials": "Invalid credentials",
		"darkMode":                "Dark Mode",
		"lightMode":               "Light Mode",
		"english":                 "English",
		"arabic":                  "Arabic",
		"uploadTitle":             "Upload New Document",
		"documentTitle":           "Document Title",
		"documentType":            "Document Type",
		"fileUpload":              "File Upload",
		"uploadButton":            "Upload",
		"documentTypeHomework":    "Homework",
		"documentTypeAbsence":     "Excuse of Absence",
		"documentTypeGradeReview": "Grade Review Request",
		"documentTypeOther":       "Other",
		"deleteConfirm":           "Are you sure you want to delete this document?",
		"cancel":                  "Cancel",
		"delete":                  "Delete",
		"edit":                    "Edit",
		"view":                    "View",
		"send":                    "Send",
		"subject":                 "Subject",
		"message":                 "Message",
		"status":                  "Status",
		"course":                  "Course",
		"dueDate":                 "Due Date",
		"saveAsDraft":             "Save as Draft",
		"viewDetails":             "View Details",
		"approved":                "Approved",
		"pending":                 "Pending",
		"rejected":                "Rejected",
		"editProfile":             "Edit Profile",
		"save":                    "Save",
		"profileUpdated":          "Profile updated successfully",
		"feedbackTitle":           "Send Feedback",
		"feedbackPlaceholder":     "Write your feedback here...",
		"feedbackSent":            "Feedback sent successfully",
		"newFeedback":             "New Feedback",
		"allDocuments":            "All Documents",
		"pendingDocuments":        "Pending Documents",
		"search":                  "Search",
		"notificationTitle":       "Notifications",
		"noNotifications":         "No notifications",
		"seeAll":                  "See All",
		"approveDeny":             "Approve/Deny",
		"approve":                 "Approve",
		"deny":                    "Deny",
		"submittedBy":             "Submitted by",
		"submissionDate":          "Submission Date",
		"noDocuments":             "No documents found",
		"uploadSuccess":           "Document uploaded successfully",
		"draftSaved":              "Draft saved successfully",

		"documentUpdated":          "Document updated",
		"documentDeleted":          "Document deleted",
		"documentApproved":         "Document approved",
		"documentRejected":         "Document rejected",
		"draftSubmitted":           "Draft submitted for review",
		"replySent":                "Reply sent",
		"loggedOut":                "Logged out",
		"loginSuccessful":          "Welcome back, %s!",
		"errorUnsupportedFile":     "File must be a document, image, or text file (no audio/video)",
		"errorFileTooLarge":        "File must be under %d MB",
		"notifUploadedTitle":       "New Document Uploaded",
		"notifUploadedMessage":     "%s uploaded a new document: \"%s\"",
		"notifApprovedTitle":       "Document Approved",
		"notifRejectedTitle":       "Document Rejected",
		"notifStatusMessage":       "Your document \"%s\" has been %s",
		"notifCommentsSuffix":      " with comments: %s",
		"notifFeedbackTitle":       "New Feedback",
		"notifFeedbackMessage":     "%s sent feedback: \"%s\"",
		"validationUniversityId":   "{0} must be a 7-digit university ID",
		"validationDocumentType":   "{0} must be one of homework, absence, grade_review, other",
		"validationRole":           "{0} must be student or admin",
		"validationTheme":          "{0} must be light or dark",
		"validationLanguage":       "{0} must be en or ar",
		"validationReviewDecision": "{0} must be approved or rejected",
	},
	Arabic: {
		"dashboard":               "لوحة القيادة",
		"documents":               "المستندات",
		"myDocuments":             "مستنداتي",
		"uploadDocument":          "رفع مستند",
		"draftDocuments":          "مسودات المستندات",
		"courses":                 "المساقات",
		"feedback":                "التغذية الراجعة",
		"settings":                "الإعدادات",
		"logout":                  "تسجيل الخروج",
		"login":                   "تسجيل الدخول",
		"welcome":                 "مرحبًا بك في هاشدوك",
		"studentLogin":            "تسجيل دخول الطالب",
		"adminLogin":              "تسجيل دخول المسؤول",
		"universityId":            "الرقم الجامعي",
		"password":                "كلمة المرور",
		"loginButton":             "تسجيل الدخول",
		"errorInvalidCredentials": "بيانات غير صحيحة",
		"darkMode":                "الوضع الداكن",
		"lightMode":               "الوضع الفاتح",
		"english":                 "الإنجليزية",
		"arabic":                  "العربية",
		"uploadTitle":             "رفع مستند جديد",
		"documentTitle":           "عنوان المستند",
		"documentType":            "نوع المستند",
		"fileUpload":              "رفع الملف",
		"uploadButton":            "رفع",
		"documentTypeHomework":    "واجب منزلي",
		"documentTypeAbsence":     "عذر غياب",
		"documentTypeGradeReview": "طلب مراجعة علامة",
		"documentTypeOther":       "أخرى",
		"deleteConfirm":           "هل أنت متأكد من حذف هذا المستند؟",
		"cancel":                  "إلغاء",
		"delete":                  "حذف",
		"edit":                    "تعديل",
		"view":                    "عرض",
		"send":                    "إرسال",
		"subject":                 "الموضوع",
		"message":                 "الرسالة",
		"status":                  "الحالة",
		"course":                  "المساق",
		"dueDate":                 "تاريخ الاستحقاق",
		"saveAsDraft":             "حفظ كمسودة",
		"viewDetails":             "عرض التفاصيل",
		"approved":                "مقبول",
		"pending":                 "قيد المراجعة",
		"rejected":                "مرفوض",
		"editProfile":             "تعديل الملف الشخصي",
		"save":                    "حفظ",
		"profileUpdated":          "تم تحديث الملف الشخصي بنجاح",
		"feedbackTitle":           "إرسال تغذية راجعة",
		"feedbackPlaceholder":     "اكتب تغذيتك الراجعة هنا...",
		"feedbackSent":            "تم إرسال التغذية الراجعة بنجاح",
		"newFeedback":             "تغذية راجعة جديدة",
		"allDocuments":            "جميع المستندات",
		"pendingDocuments":        "المستندات المعلقة",
		"search":                  "بحث",
		"notificationTitle":       "الإشعارات",
		"noNotifications":         "لا توجد إشعارات",
		"seeAll":                  "عرض الكل",
		"approveDeny":             "قبول/رفض",
		"approve":                 "قبول",
		"deny":                    "رفض",
		"submittedBy":             "مقدم من",
		"submissionDate":          "تاريخ التقديم",
		"noDocuments":             "لا توجد مستندات",
		"uploadSuccess":           "تم رفع المستند بنجاح",
		"draftSaved":              "تم حفظ المسودة بنجاح",

		"documentUpdated":          "تم تحديث المستند",
		"documentDeleted":          "تم حذف المستند",
		"documentApproved":         "تم قبول المستند",
		"documentRejected":         "تم رفض المستند",
		"draftSubmitted":           "تم إرسال المسودة للمراجعة",
		"replySent":                "تم إرسال الرد",
		"loggedOut":                "تم تسجيل الخروج",
		"loginSuccessful":          "مرحبًا بعودتك، %s!",
		"errorUnsupportedFile":     "يجب أن يكون الملف مستندًا أو صورة أو ملفًا نصيًا (بدون صوت أو فيديو)",
		"errorFileTooLarge":        "يجب أن يكون حجم الملف أقل من %d ميغابايت",
		"notifUploadedTitle":       "تم رفع مستند جديد",
		"notifUploadedMessage":     "قام %s برفع مستند جديد: \"%s\"",
		"notifApprovedTitle":       "تم قبول المستند",
		"notifRejectedTitle":       "تم رفض المستند",
		"notifStatusMessage":       "مستندك \"%s\" أصبح %s",
		"notifCommentsSuffix":      " مع الملاحظات: %s",
		"notifFeedbackTitle":       "تغذية راجعة جديدة",
		"notifFeedbackMessage":     "أرسل %s تغذية راجعة: \"%s\"",
		"validationUniversityId":   "يجب أن يكون {0} رقمًا جامعيًا من 7 أرقام",
		"validationDocumentType":   "يجب أن يكون {0} أحد: homework, absence, grade_review, other",
		"validationRole":           "يجب أن يكون {0} طالبًا أو مسؤولًا",
		"validationTheme":          "يجب أن يكون {0} فاتحًا أو داكنًا",
		"validationLanguage":       "يجب أن يكون {0} en أو ar",
		"validationReviewDecision": "يجب أن يكون {0} مقبولًا أو مرفوضًا",
	},
}
