// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

// ToolVersion is reported by the CLI's --version flag.
const ToolVersion = "1.0.0"
